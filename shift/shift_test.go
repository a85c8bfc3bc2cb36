package shift

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/hupe1980/semshift/testutil"
	"github.com/hupe1980/semshift/wordvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCompute(t *testing.T) {
	v1 := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 0,
		2, 2,
		0, 0,
	})
	v2 := mat.NewDense(4, 2, []float64{
		3, 0,
		0, 1,
		-1, -1,
		1, 0,
	})

	got, err := Compute(v1, v2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got[0], 1e-12)
	assert.InDelta(t, 1.0, got[1], 1e-12)
	assert.InDelta(t, 2.0, got[2], 1e-12)
	// Zero row vs unit vector: 0.5·‖0 − e‖² = 0.5.
	assert.InDelta(t, 0.5, got[3], 1e-12)

	_, err = Compute(v1, mat.NewDense(3, 2, nil))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCompute_RotatedPairHasNoShift(t *testing.T) {
	p := testutil.NewRNG(1).DriftedPair(50, 8, 0, 0)
	aligned := mat.NewDense(50, 8, nil)
	aligned.Mul(mat.NewDense(50, 8, flatten(p.X)), p.R)

	got, err := Compute(aligned, mat.NewDense(50, 8, flatten(p.Y)))
	require.NoError(t, err)
	for i, s := range got {
		assert.InDelta(t, 0.0, s, 1e-9, "row %d", i)
	}
}

func TestCrossDistances(t *testing.T) {
	rng := testutil.NewRNG(7)
	v1 := mat.NewDense(37, 5, flatten(rng.GaussianVectors(37, 5)))
	v2 := mat.NewDense(37, 5, flatten(rng.GaussianVectors(37, 5)))

	serial, err := CrossDistances(context.Background(), v1, v2, 1)
	require.NoError(t, err)

	for _, workers := range []int{0, 2, 3, 8, 100} {
		got, err := CrossDistances(context.Background(), v1, v2, workers)
		require.NoError(t, err)
		assert.True(t, mat.Equal(serial, got), "workers=%d", workers)
	}

	want := math.Sqrt(sqDist(v1.RawRowView(3), v2.RawRowView(11)))
	assert.InDelta(t, want, serial.At(3, 11), 1e-12)
	for i := range 37 {
		for j := range 37 {
			assert.GreaterOrEqual(t, serial.At(i, j), 0.0)
		}
	}
}

func TestCrossDistances_Errors(t *testing.T) {
	_, err := CrossDistances(context.Background(), mat.NewDense(2, 3, nil), mat.NewDense(2, 4, nil), 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CrossDistances(ctx, mat.NewDense(4, 2, nil), mat.NewDense(4, 2, nil), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelect(t *testing.T) {
	rng := testutil.NewRNG(3)
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(rng.IntN(40))
	}

	for _, k := range []int{0, 1, 5, 77, 199, 200, 500} {
		idx := make([]int, len(values))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(a, b int) int {
			switch {
			case values[a] < values[b]:
				return -1
			case values[a] > values[b]:
				return 1
			}
			return 0
		})
		want := idx[:min(k, len(values))]
		assert.Equal(t, want, SmallestK(values, k), "k=%d", k)

		largest := LargestK(values, k)
		require.Len(t, largest, min(k, len(values)))
		for i := 1; i < len(largest); i++ {
			assert.GreaterOrEqual(t, values[largest[i-1]], values[largest[i]])
		}
	}
}

func TestSelect_LargeWithTies(t *testing.T) {
	rng := testutil.NewRNG(11)
	values := make([]float64, 5000)
	for i := range values {
		values[i] = float64(rng.IntN(100))
	}

	want := make([]int, len(values))
	for i := range want {
		want[i] = i
	}
	slices.SortStableFunc(want, func(a, b int) int {
		switch {
		case values[a] > values[b]:
			return -1
		case values[a] < values[b]:
			return 1
		}
		return 0
	})

	for _, k := range []int{1, 10, 700, 4999} {
		assert.Equal(t, want[:k], LargestK(values, k), "k=%d", k)
	}
	assert.Empty(t, SmallestK(values, -3))
}

func TestTopShifted(t *testing.T) {
	common := []string{"a", "b", "c", "d", "e"}
	shifts := []float64{0.1, 0.9, 0.3, 0.7, 0.5}

	got, err := TopShifted(common, shifts, 3)
	require.NoError(t, err)
	assert.Equal(t, []WordShift{{"b", 0.9}, {"d", 0.7}, {"e", 0.5}}, got)

	got, err = TopShifted(common, shifts, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Clamped to n-1.
	got, err = TopShifted(common, shifts, 50)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "b", got[0].Word)
	assert.Equal(t, "c", got[3].Word)

	_, err = TopShifted(common, shifts, -1)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = TopShifted(common, shifts[:3], 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestContext(t *testing.T) {
	common := []string{"a", "b", "c"}
	v1 := mat.NewDense(3, 1, []float64{0, 10, 20})
	v2 := mat.NewDense(3, 1, []float64{1, 12, 25})
	dists, err := CrossDistances(context.Background(), v1, v2, 2)
	require.NoError(t, err)

	nb, err := Context(common, v1, v2, dists, "b", Source, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, nb.Words)
	assert.InDeltaSlice(t, []float64{2, 9}, nb.Distances, 1e-12)
	assert.Equal(t, [][]float64{{12}, {1}}, nb.Vectors)
	assert.Equal(t, []float64{10}, nb.Target)

	nb, err = Context(common, v1, v2, dists, "c", Target, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, nb.Words)
	assert.InDeltaSlice(t, []float64{5, 15, 25}, nb.Distances, 1e-12)
	assert.Equal(t, [][]float64{{20}, {10}, {0}}, nb.Vectors)
	assert.Equal(t, []float64{25}, nb.Target)

	nb, err = Context(common, v1, v2, dists, "a", Source, 0)
	require.NoError(t, err)
	assert.Empty(t, nb.Words)
}

func TestContext_Errors(t *testing.T) {
	common := []string{"a", "b"}
	v := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	dists, err := CrossDistances(context.Background(), v, v, 1)
	require.NoError(t, err)

	_, err = Context(common, v, v, dists, "zzz", Source, 1)
	var notFound *wordvec.WordNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "zzz", notFound.Word)

	_, err = Context(common, v, v, dists, "a", Source, -2)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = ContextAt(common, v, v, dists, 2, Source, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = ContextAt(common, v, v, mat.NewDense(2, 3, nil), 0, Source, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	assert.Equal(t, "source", Source.String())
	assert.Equal(t, "target", Target.String())
}

func flatten(rows [][]float64) []float64 {
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
