package shift

import "fmt"

// WordShift pairs a word with its shift score.
type WordShift struct {
	Word  string
	Shift float64
}

// TopShifted returns the k words with the largest shift, sorted descending.
// k is clamped to len(shifts)-1 and k == 0 yields an empty result. Only the
// selected k entries are sorted.
func TopShifted(common []string, shifts []float64, k int) ([]WordShift, error) {
	if len(common) != len(shifts) {
		return nil, fmt.Errorf("%w: %d words, %d shifts", ErrLengthMismatch, len(common), len(shifts))
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	k = min(k, len(shifts)-1)
	if k <= 0 {
		return []WordShift{}, nil
	}

	idx := LargestK(shifts, k)
	out := make([]WordShift, len(idx))
	for i, j := range idx {
		out[i] = WordShift{Word: common[j], Shift: shifts[j]}
	}
	return out, nil
}
