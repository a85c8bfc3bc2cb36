package wordvec

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options configures the transforms applied once when a Space is built.
type Options struct {
	// Center subtracts the column mean so that the vectors have zero mean.
	Center bool

	// Normalize scales every row to unit L2 norm. Applied after centering.
	Normalize bool
}

// DefaultOptions centers vectors and leaves their norms untouched.
var DefaultOptions = Options{
	Center: true,
}

// Space is an immutable word vector space.
type Space struct {
	vocab      *Vocabulary
	vectors    *mat.Dense
	dim        int
	centered   bool
	normalized bool
}

// New builds a space from words and their vectors (row i belongs to words[i]).
// The input slices are copied.
func New(words []string, vectors [][]float64, optFns ...func(o *Options)) (*Space, error) {
	if len(words) == 0 || len(vectors) == 0 {
		return nil, ErrEmptyInput
	}
	if len(words) != len(vectors) {
		return nil, fmt.Errorf("wordvec: %d words but %d vectors", len(words), len(vectors))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("wordvec: vectors must have at least one dimension")
	}

	data := make([]float64, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &DimensionMismatchError{Expected: dim, Actual: len(v)}
		}
		copy(data[i*dim:(i+1)*dim], v)
	}

	return build(words, mat.NewDense(len(vectors), dim, data), optFns...)
}

// NewFromDense builds a space from a matrix whose rows are word vectors.
// The matrix is copied.
func NewFromDense(words []string, m mat.Matrix, optFns ...func(o *Options)) (*Space, error) {
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}
	r, c := m.Dims()
	if r != len(words) {
		return nil, fmt.Errorf("wordvec: %d words but %d rows", len(words), r)
	}
	if c == 0 {
		return nil, errors.New("wordvec: vectors must have at least one dimension")
	}
	return build(words, mat.DenseCopyOf(m), optFns...)
}

func build(words []string, vectors *mat.Dense, optFns ...func(o *Options)) (*Space, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	vocab, err := NewVocabulary(words)
	if err != nil {
		return nil, err
	}

	s := &Space{
		vocab:   vocab,
		vectors: vectors,
	}
	_, s.dim = vectors.Dims()

	if opts.Center {
		center(s.vectors)
		s.centered = true
	}
	if opts.Normalize {
		normalize(s.vectors)
		s.normalized = true
	}
	return s, nil
}

// derive creates a space that shares the flags of s without re-applying them.
func (s *Space) derive(vocab *Vocabulary, vectors *mat.Dense) *Space {
	return &Space{
		vocab:      vocab,
		vectors:    vectors,
		dim:        s.dim,
		centered:   s.centered,
		normalized: s.normalized,
	}
}

func center(m *mat.Dense) {
	r, c := m.Dims()
	means := make([]float64, c)
	for i := 0; i < r; i++ {
		floats.Add(means, m.RawRowView(i))
	}
	floats.Scale(1/float64(r), means)
	for i := 0; i < r; i++ {
		floats.Sub(m.RawRowView(i), means)
	}
}

func normalize(m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		if n := floats.Norm(row, 2); n > 0 {
			floats.Scale(1/n, row)
		}
	}
}

// Len returns the number of words.
func (s *Space) Len() int { return s.vocab.Len() }

// Dim returns the vector dimension.
func (s *Space) Dim() int { return s.dim }

// Centered reports whether the vectors were mean-centered at construction.
func (s *Space) Centered() bool { return s.centered }

// Normalized reports whether the vectors were L2-normalized at construction.
func (s *Space) Normalized() bool { return s.normalized }

// Vocabulary returns the word index of the space.
func (s *Space) Vocabulary() *Vocabulary { return s.vocab }

// Words returns a copy of the vocabulary in index order.
func (s *Space) Words() []string { return s.vocab.Words() }

// Contains reports whether word is in the space.
func (s *Space) Contains(word string) bool { return s.vocab.Contains(word) }

// Index returns the row index of word.
func (s *Space) Index(word string) (int, bool) { return s.vocab.Index(word) }

// Lookup returns a copy of the vector for word.
func (s *Space) Lookup(word string) ([]float64, error) {
	i, ok := s.vocab.Index(word)
	if !ok {
		return nil, &WordNotFoundError{Word: word}
	}
	return s.Vector(i), nil
}

// Vector returns a copy of row i. It panics if i is out of range.
func (s *Space) Vector(i int) []float64 {
	return mat.Row(nil, i, s.vectors)
}

// Vectors returns a read-only view of the N×D matrix. Callers must not
// modify it.
func (s *Space) Vectors() mat.Matrix { return s.vectors }

// Dense returns a copy of the N×D matrix.
func (s *Space) Dense() *mat.Dense { return mat.DenseCopyOf(s.vectors) }

// Rows returns a copy of the given rows stacked in order.
func (s *Space) Rows(indices []int) (*mat.Dense, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyInput
	}
	out := mat.NewDense(len(indices), s.dim, nil)
	for r, i := range indices {
		if i < 0 || i >= s.Len() {
			return nil, fmt.Errorf("wordvec: row index %d out of range [0,%d)", i, s.Len())
		}
		out.SetRow(r, s.vectors.RawRowView(i))
	}
	return out, nil
}

// Subset returns a space restricted to words, in the given order.
func (s *Space) Subset(words []string) (*Space, error) {
	if len(words) == 0 {
		return nil, ErrEmptyInput
	}
	indices := make([]int, len(words))
	for k, w := range words {
		i, ok := s.vocab.Index(w)
		if !ok {
			return nil, &WordNotFoundError{Word: w}
		}
		indices[k] = i
	}
	rows, err := s.Rows(indices)
	if err != nil {
		return nil, err
	}
	vocab, err := NewVocabulary(words)
	if err != nil {
		return nil, err
	}
	return s.derive(vocab, rows), nil
}

// Rotate returns a space with the same vocabulary whose vectors are X·Q.
func (s *Space) Rotate(q mat.Matrix) (*Space, error) {
	r, c := q.Dims()
	if r != s.dim {
		return nil, &DimensionMismatchError{Expected: s.dim, Actual: r}
	}
	if c != s.dim {
		return nil, &DimensionMismatchError{Expected: s.dim, Actual: c}
	}
	out := mat.NewDense(s.Len(), s.dim, nil)
	out.Mul(s.vectors, q)
	return s.derive(s.vocab, out), nil
}

// WithVectors returns a space with the same vocabulary and the given vectors.
// The matrix is copied.
func (s *Space) WithVectors(m mat.Matrix) (*Space, error) {
	r, c := m.Dims()
	if r != s.Len() {
		return nil, fmt.Errorf("wordvec: %d words but %d rows", s.Len(), r)
	}
	if c != s.dim {
		return nil, &DimensionMismatchError{Expected: s.dim, Actual: c}
	}
	return s.derive(s.vocab, mat.DenseCopyOf(m)), nil
}
