package wordvec

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func noTransform(o *Options) {
	o.Center = false
	o.Normalize = false
}

func TestNew(t *testing.T) {
	s, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 6}})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Dim())
	assert.True(t, s.Centered())
	assert.False(t, s.Normalized())

	// Column means (2, 4) are subtracted.
	v, err := s.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2}, v)
}

func TestNew_Normalize(t *testing.T) {
	s, err := New([]string{"a", "b"}, [][]float64{{3, 4}, {0, 0}}, func(o *Options) {
		o.Center = false
		o.Normalize = true
	})
	require.NoError(t, err)

	v, _ := s.Lookup("a")
	assert.InDelta(t, 0.6, v[0], 1e-12)
	assert.InDelta(t, 0.8, v[1], 1e-12)

	// Zero rows stay zero.
	v, _ = s.Lookup("b")
	assert.Equal(t, []float64{0, 0}, v)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = New([]string{"a", "a"}, [][]float64{{1}, {2}})
	assert.ErrorIs(t, err, ErrDuplicateWord)

	_, err = New([]string{"a", "b"}, [][]float64{{1, 2}, {3}})
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)

	_, err = New([]string{"a"}, [][]float64{{1}, {2}})
	assert.Error(t, err)
}

func TestLookup_NotFound(t *testing.T) {
	s, err := New([]string{"a"}, [][]float64{{1}}, noTransform)
	require.NoError(t, err)

	_, err = s.Lookup("zzz")
	var nf *WordNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zzz", nf.Word)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	s, err := New([]string{"a"}, [][]float64{{1, 2}}, noTransform)
	require.NoError(t, err)

	v, _ := s.Lookup("a")
	v[0] = 100

	again, _ := s.Lookup("a")
	assert.Equal(t, 1.0, again[0])
}

func TestRotate(t *testing.T) {
	s, err := New([]string{"x", "y"}, [][]float64{{1, 0}, {0, 1}}, noTransform)
	require.NoError(t, err)

	// 90 degrees counter-clockwise for row vectors.
	q := mat.NewDense(2, 2, []float64{0, 1, -1, 0})
	r, err := s.Rotate(q)
	require.NoError(t, err)

	v, _ := r.Lookup("x")
	assert.InDeltaSlice(t, []float64{0, 1}, v, 1e-12)
	v, _ = r.Lookup("y")
	assert.InDeltaSlice(t, []float64{-1, 0}, v, 1e-12)
	assert.Equal(t, s.Words(), r.Words())

	_, err = s.Rotate(mat.NewDense(3, 3, nil))
	var dm *DimensionMismatchError
	assert.ErrorAs(t, err, &dm)
}

func TestSubset(t *testing.T) {
	s, err := New([]string{"a", "b", "c"}, [][]float64{{1}, {2}, {3}}, noTransform)
	require.NoError(t, err)

	sub, err := s.Subset([]string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sub.Words())
	assert.Equal(t, []float64{3}, sub.Vector(0))

	_, err = s.Subset([]string{"nope"})
	var nf *WordNotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = s.Rows([]int{5})
	assert.Error(t, err)
}

func TestIntersect(t *testing.T) {
	a, err := New([]string{"w1", "w2", "w3", "w4"}, [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}, noTransform)
	require.NoError(t, err)
	b, err := New([]string{"w4", "w9", "w2", "w1"}, [][]float64{{40, 40}, {90, 90}, {20, 20}, {10, 10}}, noTransform)
	require.NoError(t, err)
	c, err := New([]string{"w2", "w4", "w1"}, [][]float64{{-2, -2}, {-4, -4}, {-1, -1}}, noTransform)
	require.NoError(t, err)

	out, err := Intersect(a, b, c)
	require.NoError(t, err)
	require.Len(t, out, 3)

	for _, s := range out {
		assert.Equal(t, []string{"w1", "w2", "w4"}, s.Words())
	}

	originals := []*Space{a, b, c}
	for k, s := range out {
		for _, w := range s.Words() {
			got, err := s.Lookup(w)
			require.NoError(t, err)
			want, err := originals[k].Lookup(w)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestIntersect_Errors(t *testing.T) {
	_, err := Intersect()
	assert.ErrorIs(t, err, ErrEmptyInput)

	a, _ := New([]string{"a"}, [][]float64{{1, 2}}, noTransform)
	b, _ := New([]string{"b"}, [][]float64{{1, 2}}, noTransform)
	_, err = Intersect(a, b)
	assert.ErrorIs(t, err, ErrEmptyInput)

	c, _ := New([]string{"a"}, [][]float64{{1, 2, 3}}, noTransform)
	_, err = Intersect(a, c)
	var dm *DimensionMismatchError
	assert.ErrorAs(t, err, &dm)
}

func TestIntersect_KeepsFlagsWithoutRecentering(t *testing.T) {
	a, _ := New([]string{"a", "b", "c"}, [][]float64{{1}, {2}, {6}})
	b, _ := New([]string{"a", "b"}, [][]float64{{5}, {7}})

	out, err := Intersect(a, b)
	require.NoError(t, err)
	assert.True(t, out[0].Centered())

	want, _ := a.Lookup("a")
	got, _ := out[0].Lookup("a")
	assert.Equal(t, want, got)
}

func TestUnion(t *testing.T) {
	a, _ := New([]string{"x", "y"}, [][]float64{{1, 1}, {2, 2}}, noTransform)
	b, _ := New([]string{"z", "x"}, [][]float64{{5, 5}, {3, 7}}, noTransform)

	u, err := Union(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, u.Words())

	v, _ := u.Lookup("x")
	assert.Equal(t, []float64{2, 4}, v)
	v, _ = u.Lookup("z")
	assert.Equal(t, []float64{5, 5}, v)

	s, err := UnionWith(Sum, a, b)
	require.NoError(t, err)
	v, _ = s.Lookup("x")
	assert.Equal(t, []float64{4, 8}, v)
}

func TestUnion_Errors(t *testing.T) {
	_, err := Union()
	assert.ErrorIs(t, err, ErrEmptyInput)

	a, _ := New([]string{"a"}, [][]float64{{1, 2}}, noTransform)
	c, _ := New([]string{"a"}, [][]float64{{1, 2, 3}}, noTransform)
	_, err = Union(a, c)
	var dm *DimensionMismatchError
	assert.ErrorAs(t, err, &dm)
}

func TestText_RoundTrip(t *testing.T) {
	words := []string{"alpha", "beta", "gamma"}
	vectors := [][]float64{
		{0.1, -2.5e-7, math.Pi},
		{1e300, 0, -1},
		{1.0 / 3.0, 2.0 / 3.0, 42},
	}
	s, err := New(words, vectors, noTransform)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, s))
	assert.True(t, strings.HasPrefix(buf.String(), "3 3\n"))

	got, err := ReadText(&buf, noTransform)
	require.NoError(t, err)
	assert.Equal(t, words, got.Words())
	for i := range words {
		assert.Equal(t, s.Vector(i), got.Vector(i))
	}
}

func TestReadText_NoHeader(t *testing.T) {
	s, err := ReadText(strings.NewReader("a 1 2\nb 3 4\n"), noTransform)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Dim())
}

func TestReadText_Errors(t *testing.T) {
	_, err := ReadText(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadText(strings.NewReader("2 2\na 1 2\n"))
	assert.Error(t, err)

	_, err = ReadText(strings.NewReader("a 1 2\nb 3\n"))
	var dm *DimensionMismatchError
	assert.True(t, errors.As(err, &dm))

	_, err = ReadText(strings.NewReader("a 1 x\n"))
	assert.Error(t, err)
}

func TestWriteText_RejectsWhitespaceWords(t *testing.T) {
	s, err := New([]string{"new york"}, [][]float64{{1}}, noTransform)
	require.NoError(t, err)
	assert.Error(t, WriteText(&bytes.Buffer{}, s))
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.txt")
	s, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}}, noTransform)
	require.NoError(t, err)

	require.NoError(t, SaveFile(path, s))
	got, err := LoadFile(path, noTransform)
	require.NoError(t, err)
	assert.Equal(t, s.Words(), got.Words())
	assert.True(t, mat.Equal(s.Vectors(), got.Vectors()))
}
