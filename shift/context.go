package shift

import (
	"fmt"
	"slices"

	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/mat"
)

// Direction selects the space the queried word is taken from.
type Direction int

const (
	// Source looks up the word in the aligned source space and returns its
	// nearest target-space neighbours (a row of the distance matrix).
	Source Direction = iota
	// Target looks up the word in the target space and returns its nearest
	// aligned source-space neighbours (a column of the distance matrix).
	Target
)

func (d Direction) String() string {
	switch d {
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Neighbors is the result of a context query.
type Neighbors struct {
	Words     []string
	Distances []float64
	// Vectors holds the neighbours' vectors from the opposite space.
	Vectors [][]float64
	// Target is the queried word's own vector.
	Target []float64
}

// Context returns the k nearest cross-space neighbours of word, ascending by
// distance. dists must be the |common|×|common| matrix of CrossDistances.
func Context(common []string, v1, v2, dists mat.Matrix, word string, dir Direction, k int) (*Neighbors, error) {
	idx := slices.Index(common, word)
	if idx < 0 {
		return nil, &wordvec.WordNotFoundError{Word: word}
	}
	return ContextAt(common, v1, v2, dists, idx, dir, k)
}

// ContextAt is Context for a known row index.
func ContextAt(common []string, v1, v2, dists mat.Matrix, idx int, dir Direction, k int) (*Neighbors, error) {
	n := len(common)
	if r, c := dists.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: distance matrix is %dx%d for %d words", ErrLengthMismatch, r, c, n)
	}
	if r, _ := v1.Dims(); r != n {
		return nil, fmt.Errorf("%w: %d source rows for %d words", ErrLengthMismatch, r, n)
	}
	if r, _ := v2.Dims(); r != n {
		return nil, fmt.Errorf("%w: %d target rows for %d words", ErrLengthMismatch, r, n)
	}
	if idx < 0 || idx >= n {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, idx, n)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	var (
		line     []float64
		own, opp mat.Matrix
	)
	switch dir {
	case Source:
		line = mat.Row(nil, idx, dists)
		own, opp = v1, v2
	case Target:
		line = mat.Col(nil, idx, dists)
		own, opp = v2, v1
	default:
		return nil, fmt.Errorf("unknown direction %v", dir)
	}

	sel := SmallestK(line, k)
	nb := &Neighbors{
		Words:     make([]string, len(sel)),
		Distances: make([]float64, len(sel)),
		Vectors:   make([][]float64, len(sel)),
		Target:    mat.Row(nil, idx, own),
	}
	for i, j := range sel {
		nb.Words[i] = common[j]
		nb.Distances[i] = line[j]
		nb.Vectors[i] = mat.Row(nil, j, opp)
	}
	return nb, nil
}
