package semshift

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/hupe1980/semshift/align"
	"github.com/hupe1980/semshift/artifact"
	"github.com/hupe1980/semshift/blobstore"
	"github.com/hupe1980/semshift/occurrence"
	"github.com/hupe1980/semshift/sentences"
	"github.com/hupe1980/semshift/shift"
	"github.com/hupe1980/semshift/testutil"
	"github.com/hupe1980/semshift/wordvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func raw(o *wordvec.Options) {
	o.Center = false
	o.Normalize = false
}

// rotZ is a 90° rotation about the z axis applied to row vectors.
var rotZ = mat.NewDense(3, 3, []float64{
	0, 1, 0,
	-1, 0, 0,
	0, 0, 1,
})

// toySpaces returns five words in three dimensions where the target is the
// source rotated by rotZ, except for "cell" which is pushed far away. The
// target lists its words in another order and knows one extra word.
func toySpaces(t *testing.T) (*wordvec.Space, *wordvec.Space) {
	t.Helper()
	words := []string{"apple", "bank", "cell", "dog", "egg"}
	x := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 0},
		{0, 1, 1},
	}
	src, err := wordvec.New(words, x, raw)
	require.NoError(t, err)

	rotated := make(map[string][]float64, len(words))
	row := make([]float64, 3)
	for i, w := range words {
		v := mat.NewVecDense(3, nil)
		v.MulVec(rotZ.T(), mat.NewVecDense(3, x[i]))
		copy(row, v.RawVector().Data)
		rotated[w] = append([]float64(nil), row...)
	}
	rotated["cell"] = []float64{5, 5, -4}

	dstWords := []string{"egg", "dog", "zebra", "cell", "bank", "apple"}
	y := make([][]float64, len(dstWords))
	for i, w := range dstWords {
		if v, ok := rotated[w]; ok {
			y[i] = v
		} else {
			y[i] = []float64{3, 3, 3}
		}
	}
	dst, err := wordvec.New(dstWords, y, raw)
	require.NoError(t, err)
	return src, dst
}

func alignToy(t *testing.T, optFns ...Option) *Alignment {
	t.Helper()
	src, dst := toySpaces(t)
	a, err := New(optFns...).Align(context.Background(), src, dst, align.Global{Exclude: []string{"cell"}})
	require.NoError(t, err)
	return a
}

func TestAlign_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a := alignToy(t)

	assert.Equal(t, []string{"apple", "bank", "cell", "dog", "egg"}, a.Common())
	assert.Equal(t, 5, a.Len())
	assert.Equal(t, 3, a.Dim())
	assert.Less(t, testutil.FrobeniusDistance(a.Q(), rotZ), 1e-8)
	assert.Less(t, testutil.OrthogonalityError(a.Q()), 1e-8)

	top, err := a.TopShiftedWords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "cell", top[0].Word)
	assert.InDelta(t, 1+4/math.Sqrt(66), top[0].Shift, 1e-9)

	for i, s := range a.Shift() {
		if a.Common()[i] != "cell" {
			assert.Less(t, s, 1e-12)
		}
	}

	r, c := a.Dists().Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 5, c)
}

func TestAlign_TopShiftedClamps(t *testing.T) {
	ctx := context.Background()
	a := alignToy(t)

	top, err := a.TopShiftedWords(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, top, 4)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Shift, top[i].Shift)
	}

	top, err = a.TopShiftedWords(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = a.TopShiftedWords(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidK)
	assert.ErrorIs(t, err, ErrValue)
	assert.ErrorIs(t, err, shift.ErrInvalidK)
}

func TestAlign_Context(t *testing.T) {
	ctx := context.Background()
	a := alignToy(t)

	n, err := a.Context(ctx, "apple", shift.Source, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "dog"}, n.Words)
	assert.InDeltaSlice(t, []float64{0, 1}, n.Distances, 1e-8)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, n.Target, 1e-8)

	n, err = a.Context(ctx, "bank", shift.Target, 10)
	require.NoError(t, err)
	assert.Len(t, n.Words, 5)
	assert.Equal(t, "bank", n.Words[0])

	_, err = a.Context(ctx, "zebra", shift.Source, 2)
	var wnf *ErrWordNotFound
	require.ErrorAs(t, err, &wnf)
	assert.Equal(t, "zebra", wnf.Word)

	var inner *wordvec.WordNotFoundError
	assert.ErrorAs(t, err, &inner)
}

func TestAlign_Errors(t *testing.T) {
	ctx := context.Background()
	eng := New()
	src, dst := toySpaces(t)

	_, err := eng.Align(ctx, src, src, align.Global{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = eng.Align(ctx, src, nil, align.Global{})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = eng.Align(ctx, src, dst, nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = eng.Align(ctx, src, dst, align.NoiseAware{Threshold: 0})
	assert.ErrorIs(t, err, ErrConfig)
	assert.ErrorIs(t, err, align.ErrConfig)

	flat, err := wordvec.New([]string{"apple", "bank"}, [][]float64{{1, 0}, {0, 1}}, raw)
	require.NoError(t, err)
	_, err = eng.Align(ctx, src, flat, align.Global{})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)

	other, err := wordvec.New([]string{"x", "y"}, [][]float64{{1, 0, 0}, {0, 1, 0}}, raw)
	require.NoError(t, err)
	_, err = eng.Align(ctx, src, other, align.Global{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAlign_Strategies(t *testing.T) {
	rng := testutil.NewRNG(99)
	p := rng.DriftedPair(60, 4, 6, 3)
	src, err := wordvec.New(p.Words, p.X, raw)
	require.NoError(t, err)
	dst, err := wordvec.New(p.Words, p.Y, raw)
	require.NoError(t, err)

	s4 := align.DefaultS4()
	s4.Iters = 3

	for _, cfg := range []align.Config{align.Global{}, align.DefaultNoiseAware(), s4} {
		t.Run(string(cfg.Kind()), func(t *testing.T) {
			a, err := New(WithSeed(1)).Align(context.Background(), src, dst, cfg)
			require.NoError(t, err)
			assert.Less(t, testutil.OrthogonalityError(a.Q()), 1e-8)
			require.NotNil(t, a.Report())
			assert.Equal(t, cfg.Kind(), a.Report().Kind())
		})
	}
}

func TestEngine_Seed(t *testing.T) {
	src, dst := toySpaces(t)
	cfg := align.Global{AnchorRandom: func() *int { n := 3; return &n }()}

	anchors := func(eng *Engine) []int {
		a, err := eng.Align(context.Background(), src, dst, cfg)
		require.NoError(t, err)
		return a.Report().(*align.GlobalReport).Anchors
	}

	assert.Equal(t, anchors(New(WithSeed(5))), anchors(New(WithSeed(5))))

	r1 := testutil.NewRNG(8)
	r2 := testutil.NewRNG(8)
	assert.Equal(t, anchors(New(WithRand(r1.Rand()))), anchors(New(WithRand(r2.Rand()))))
}

func TestAlignment_BundleRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := New()
	a := alignToy(t)

	store := artifact.NewStore(blobstore.NewMemoryStore())
	b, err := a.ToBundle("toy")
	require.NoError(t, err)
	name, err := store.Save(ctx, b)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, name))

	restored, err := eng.Load(ctx, store, "")
	require.NoError(t, err)

	assert.Equal(t, a.Common(), restored.Common())
	assert.Equal(t, a.Shift(), restored.Shift())
	assert.True(t, mat.Equal(a.Q(), restored.Q()))
	assert.True(t, mat.Equal(a.Dists(), restored.Dists()))
	assert.Nil(t, restored.Report())
	assert.Equal(t, a.Config(), restored.Config())

	top, err := restored.TopShiftedWords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "cell", top[0].Word)

	_, err = eng.Load(ctx, artifact.NewStore(blobstore.NewMemoryStore()), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	b.Config = json.RawMessage(`{"alignment_type":"affine"}`)
	_, err = eng.FromBundle(b)
	assert.ErrorIs(t, err, ErrConfig)

	b.Shift = nil
	_, err = eng.FromBundle(b)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func toyCorpus(t *testing.T, space *wordvec.Space, lines []string) sentences.Corpus {
	t.Helper()
	idx, err := occurrence.Build(context.Background(), strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return sentences.Corpus{Occurrences: idx, Lines: sentences.MemoryLines(lines), Space: space}
}

func TestMiner(t *testing.T) {
	ctx := context.Background()
	src, dst := toySpaces(t)
	a := alignToy(t)

	srcCorpus := toyCorpus(t, src, []string{"apple bank", "apple cell", "dog"})
	dstCorpus := toyCorpus(t, dst, []string{"apple egg", "apple bank", "cell zebra", "apple dog"})

	m, err := a.Miner(srcCorpus, dstCorpus)
	require.NoError(t, err)

	// The two least similar cells share source line 1, so only one pair
	// survives the one-to-one constraint.
	pairs, err := m.DissimilarPairs(ctx, "apple", 5)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, sentences.Line{Number: 1, Text: "apple cell"}, pairs[0].Source)
	assert.Equal(t, sentences.Line{Number: 1, Text: "apple bank"}, pairs[0].Target)
	assert.InDelta(t, 0.5, pairs[0].Similarity, 1e-8)

	pairs, err = m.DissimilarPairs(ctx, "apple", 0)
	require.NoError(t, err)
	assert.Empty(t, pairs)

	anchored, err := m.RandomAnchor(ctx, "apple")
	require.NoError(t, err)
	assert.Contains(t, anchored.Anchor.Text, "apple")
	assert.Len(t, anchored.Matches, 3)

	_, err = m.DissimilarPairs(ctx, "zebra", 5)
	var wnf *ErrWordNotFound
	assert.ErrorAs(t, err, &wnf)

	_, err = m.DissimilarPairs(ctx, "apple", -1)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = a.Miner(sentences.Corpus{}, dstCorpus)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	a := alignToy(t, WithMetricsCollector(metrics), WithLogger(nil))

	_, _ = a.TopShiftedWords(ctx, 2)
	_, _ = a.Context(ctx, "nope", shift.Source, 2)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.AlignCount)
	assert.Equal(t, int64(5), stats.AlignedWords)
	assert.Equal(t, int64(0), stats.AlignErrors)
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
}

func TestParseK(t *testing.T) {
	tests := []struct {
		in   any
		want int
		err  error
	}{
		{5, 5, nil},
		{int64(0), 0, nil},
		{uint8(7), 7, nil},
		{float64(3), 3, nil},
		{json.Number("12"), 12, nil},
		{-1, 0, ErrInvalidK},
		{float64(-2), 0, ErrInvalidK},
		{2.5, 0, ErrType},
		{math.NaN(), 0, ErrType},
		{"5", 0, ErrType},
		{true, 0, ErrType},
		{nil, 0, ErrType},
		{json.Number("1.5"), 0, ErrType},
	}
	for _, tt := range tests {
		got, err := ParseK(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseK(-3)
	assert.True(t, errors.Is(err, ErrValue))
}
