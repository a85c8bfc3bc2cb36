package occurrence

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = `the cat sat
a dog ran

the dog sat on the cat
cat
`

func TestBuild(t *testing.T) {
	x, err := Build(context.Background(), strings.NewReader(corpus))
	require.NoError(t, err)

	assert.Equal(t, DefaultLimit, x.Limit())
	assert.Equal(t, 5, x.NumLines())
	assert.Equal(t, []int{0, 3, 4}, x.Lines("cat"))
	assert.Equal(t, []int{1, 3}, x.Lines("dog"))
	assert.Equal(t, []int{0, 3}, x.Lines("the"))
	assert.Nil(t, x.Lines("bird"))
	assert.False(t, x.Contains("bird"))
	assert.Equal(t, 3, x.Count("cat"))
	assert.Equal(t, []string{"a", "cat", "dog", "on", "ran", "sat", "the"}, x.Words())
	assert.Equal(t, []int{3}, x.CoOccurring("cat", "dog"))
	assert.Nil(t, x.CoOccurring("cat", "bird"))
}

func TestBuild_BatchingMatchesSequential(t *testing.T) {
	var sb strings.Builder
	for i := range 1000 {
		fmt.Fprintf(&sb, "w%d w%d common\n", i%17, i%5)
	}

	want, err := Build(context.Background(), strings.NewReader(sb.String()), func(o *Options) {
		o.Workers = 1
		o.BatchSize = 1 << 20
	})
	require.NoError(t, err)

	got, err := Build(context.Background(), strings.NewReader(sb.String()), func(o *Options) {
		o.Workers = 4
		o.BatchSize = 7
	})
	require.NoError(t, err)

	require.Equal(t, want.Words(), got.Words())
	for _, w := range want.Words() {
		assert.Equal(t, want.Lines(w), got.Lines(w), w)
	}
}

func TestBuild_Limit(t *testing.T) {
	x, err := Build(context.Background(), strings.NewReader(strings.Repeat("word\n", 50)), func(o *Options) {
		o.Limit = 10
		o.BatchSize = 3
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, x.Lines("word"))

	_, err = Build(context.Background(), strings.NewReader("a"), func(o *Options) { o.Limit = 0 })
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestBuild_CustomTokenizer(t *testing.T) {
	x, err := Build(context.Background(), strings.NewReader("A,b\nb,C"), func(o *Options) {
		o.Tokenize = func(line string) []string { return strings.Split(strings.ToLower(line), ",") }
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, x.Lines("b"))
	assert.Equal(t, []int{1}, x.Lines("c"))
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, strings.NewReader(corpus))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteReadRoundTrip(t *testing.T) {
	x, err := Build(context.Background(), strings.NewReader(corpus), func(o *Options) { o.Limit = 2 })
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := x.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	got, err := ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, x.Limit(), got.Limit())
	assert.Equal(t, x.NumLines(), got.NumLines())
	assert.Equal(t, x.Words(), got.Words())
	for _, w := range x.Words() {
		assert.Equal(t, x.Lines(w), got.Lines(w), w)
	}
	assert.Equal(t, []int{0, 3}, got.Lines("cat"))
}

func TestWriteTo_RejectsUnreadableWords(t *testing.T) {
	for name, word := range map[string]string{
		"empty":    "",
		"too long": strings.Repeat("x", maxWordLen+1),
	} {
		t.Run(name, func(t *testing.T) {
			x, err := New(3)
			require.NoError(t, err)
			x.Add(0, []string{"a", word})

			var buf bytes.Buffer
			n, err := x.WriteTo(&buf)
			assert.ErrorIs(t, err, ErrInvalidFormat)
			assert.Zero(t, n)
			assert.Zero(t, buf.Len())
		})
	}

	// The longest accepted word survives a round trip.
	x, err := New(3)
	require.NoError(t, err)
	long := strings.Repeat("y", maxWordLen)
	x.Add(2, []string{long})
	var buf bytes.Buffer
	_, err = x.WriteTo(&buf)
	require.NoError(t, err)
	got, err := ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got.Lines(long))
}

func TestReadFrom_Malformed(t *testing.T) {
	x, err := New(3)
	require.NoError(t, err)
	x.Add(0, []string{"a", "b"})

	var buf bytes.Buffer
	_, err = x.WriteTo(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	tests := map[string][]byte{
		"empty":     nil,
		"bad magic": append([]byte{0, 0, 0, 0}, data[4:]...),
		"truncated": data[:len(data)-2],
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFrom(bytes.NewReader(in))
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}
