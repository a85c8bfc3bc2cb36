package wordvec

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Aggregator folds the vectors a word has across several spaces into one.
// dst has length D and is zeroed; vecs holds at least one vector.
type Aggregator func(dst []float64, vecs [][]float64)

// Mean is the arithmetic mean aggregator.
func Mean(dst []float64, vecs [][]float64) {
	for _, v := range vecs {
		floats.Add(dst, v)
	}
	floats.Scale(1/float64(len(vecs)), dst)
}

// Sum adds the vectors.
func Sum(dst []float64, vecs [][]float64) {
	for _, v := range vecs {
		floats.Add(dst, v)
	}
}

func checkDims(spaces []*Space) error {
	if len(spaces) == 0 {
		return ErrEmptyInput
	}
	dim := spaces[0].Dim()
	for _, s := range spaces[1:] {
		if s.Dim() != dim {
			return &DimensionMismatchError{Expected: dim, Actual: s.Dim()}
		}
	}
	return nil
}

// Intersect restricts every input to the words they all share. The outputs
// keep the relative order of the first input, so row i names the same word
// in every result.
func Intersect(spaces ...*Space) ([]*Space, error) {
	if err := checkDims(spaces); err != nil {
		return nil, err
	}

	common := make([]string, 0, spaces[0].Len())
	for _, w := range spaces[0].vocab.words {
		shared := true
		for _, s := range spaces[1:] {
			if !s.vocab.Contains(w) {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, w)
		}
	}
	if len(common) == 0 {
		return nil, ErrEmptyInput
	}

	vocab, err := NewVocabulary(common)
	if err != nil {
		return nil, err
	}

	out := make([]*Space, len(spaces))
	for k, s := range spaces {
		rows := mat.NewDense(len(common), s.dim, nil)
		for i, w := range common {
			j, _ := s.vocab.Index(w)
			rows.SetRow(i, s.vectors.RawRowView(j))
		}
		out[k] = s.derive(vocab, rows)
	}
	return out, nil
}

// Union merges the spaces using Mean for words present in more than one.
func Union(spaces ...*Space) (*Space, error) {
	return UnionWith(Mean, spaces...)
}

// UnionWith merges the spaces, combining the vectors of shared words with agg.
// Words appear in first-seen order across the inputs. The result takes its
// flags from the first space.
func UnionWith(agg Aggregator, spaces ...*Space) (*Space, error) {
	if err := checkDims(spaces); err != nil {
		return nil, err
	}
	if agg == nil {
		agg = Mean
	}

	var words []string
	seen := make(map[string]struct{})
	for _, s := range spaces {
		for _, w := range s.vocab.words {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}

	vocab, err := NewVocabulary(words)
	if err != nil {
		return nil, err
	}

	dim := spaces[0].dim
	rows := mat.NewDense(len(words), dim, nil)
	vecs := make([][]float64, 0, len(spaces))
	for i, w := range words {
		vecs = vecs[:0]
		for _, s := range spaces {
			if j, ok := s.vocab.Index(w); ok {
				vecs = append(vecs, s.vectors.RawRowView(j))
			}
		}
		agg(rows.RawRowView(i), vecs)
	}
	return spaces[0].derive(vocab, rows), nil
}
