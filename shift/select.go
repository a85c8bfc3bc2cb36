package shift

import (
	"cmp"

	"github.com/viterin/partial"
)

// SmallestK returns the indices of the k smallest values in ascending order
// of value, ties broken by index. k is clamped to len(values).
func SmallestK(values []float64, k int) []int {
	return extremeK(values, k, func(a, b int) int {
		return cmp.Or(cmp.Compare(values[a], values[b]), cmp.Compare(a, b))
	})
}

// LargestK returns the indices of the k largest values in descending order
// of value, ties broken by index. k is clamped to len(values).
func LargestK(values []float64, k int) []int {
	return extremeK(values, k, func(a, b int) int {
		return cmp.Or(cmp.Compare(values[b], values[a]), cmp.Compare(a, b))
	})
}

// extremeK selects the first k indices under order with a Floyd-Rivest
// partial sort. order must be total for the result to be deterministic.
func extremeK(values []float64, k int, order func(a, b int) int) []int {
	k = min(max(k, 0), len(values))
	if k == 0 {
		return []int{}
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	partial.SortFunc(idx, k, order)
	return idx[:k:k]
}
