package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/semshift/blobstore"
	"github.com/hupe1980/semshift/codec"
	"github.com/hupe1980/semshift/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testBundle(t *testing.T, n, d int) *Bundle {
	t.Helper()
	rng := testutil.NewRNG(7)

	v1 := mat.NewDense(n, d, nil)
	v2 := mat.NewDense(n, d, nil)
	for i, row := range rng.GaussianVectors(n, d) {
		v1.SetRow(i, row)
	}
	for i, row := range rng.GaussianVectors(n, d) {
		v2.SetRow(i, row)
	}
	dists := mat.NewDense(n, n, nil)
	shift := make([]float64, n)
	for i := range n {
		shift[i] = rng.Float64()
		for j := range n {
			dists.Set(i, j, float64(i*n+j))
		}
	}
	return &Bundle{
		Name:      "run-1",
		Config:    json.RawMessage(`{"alignment_type":"global","args":{}}`),
		Common:    testutil.Words(n),
		V1:        v1,
		V2:        v2,
		Q:         rng.Orthogonal(d),
		Shift:     shift,
		Dists:     dists,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func assertBundleEqual(t *testing.T, want, got *Bundle) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	assert.JSONEq(t, string(want.Config), string(got.Config))
	assert.Equal(t, want.Common, got.Common)
	assert.Equal(t, want.Shift, got.Shift)
	assert.True(t, mat.Equal(want.V1, got.V1))
	assert.True(t, mat.Equal(want.V2, got.V2))
	assert.True(t, mat.Equal(want.Q, got.Q))
	assert.True(t, mat.Equal(want.Dists, got.Dists))
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(blobstore.NewMemoryStore(), func(o *Options) {
				o.Compression = c
			})
			want := testBundle(t, 12, 4)

			name, err := store.Save(ctx, want)
			require.NoError(t, err)
			assert.Equal(t, "run-1", name)

			got, err := store.Load(ctx, name)
			require.NoError(t, err)
			assertBundleEqual(t, want, got)

			m, err := store.Manifest(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, c.String(), m.Compression)
			assert.Equal(t, 12, m.Words)
			assert.Equal(t, 4, m.Dim)
			assert.Len(t, m.Blobs, 6)
		})
	}
}

func TestStore_LocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewLocalStore(t.TempDir()))
	want := testBundle(t, 5, 3)

	name, err := store.Save(ctx, want)
	require.NoError(t, err)

	got, err := store.Load(ctx, name)
	require.NoError(t, err)
	assertBundleEqual(t, want, got)
}

func TestStore_PartialLoads(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())
	want := testBundle(t, 6, 2)
	_, err := store.Save(ctx, want)
	require.NoError(t, err)

	common, err := store.LoadCommon(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.Common, common)

	shift, err := store.LoadShift(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, want.Shift, shift)

	q, err := store.LoadMatrix(ctx, "run-1", MatrixQ)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want.Q, q))

	_, err = store.LoadMatrix(ctx, "run-1", Matrix("w"))
	assert.Error(t, err)

	_, err = store.LoadCommon(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_DefaultName(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())
	b := testBundle(t, 3, 2)
	b.Name = ""
	b.CreatedAt = time.Time{}

	name, err := store.Save(ctx, b)
	require.NoError(t, err)
	_, err = uuid.Parse(name)
	assert.NoError(t, err)

	m, err := store.Manifest(ctx, name)
	require.NoError(t, err)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestStore_YAMLCodec(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore(), func(o *Options) {
		o.Codec = codec.YAML{}
	})
	want := testBundle(t, 4, 2)
	_, err := store.Save(ctx, want)
	require.NoError(t, err)

	m, err := store.Manifest(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "yaml", m.Codec)

	// A default store reads bundles written with another codec.
	got, err := NewStore(store.blobs).Load(ctx, "run-1")
	require.NoError(t, err)
	assertBundleEqual(t, want, got)
}

func TestStore_IOLimit(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore(), func(o *Options) {
		o.IOLimitBytesPerSec = 1 << 30
		o.Compression = CompressionNone
	})
	want := testBundle(t, 20, 8)

	_, err := store.Save(ctx, want)
	require.NoError(t, err)
	got, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assertBundleEqual(t, want, got)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	want.Name = "run-2"
	_, err = store.Save(canceled, want)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_WriteAbortsOnLimit(t *testing.T) {
	dir := t.TempDir()
	stores := map[string]blobstore.BlobStore{
		"local":  blobstore.NewLocalStore(dir),
		"memory": blobstore.NewMemoryStore(),
	}
	for name, blobs := range stores {
		t.Run(name, func(t *testing.T) {
			store := NewStore(blobs, func(o *Options) {
				o.IOLimitBytesPerSec = 1024
			})
			// The first chunk fits the initial burst; the second one
			// would wait past the deadline.
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			err := store.write(ctx, "run-1/v1.bin", make([]byte, 4096))
			require.Error(t, err)

			_, err = blobs.Open(context.Background(), "run-1/v1.bin")
			assert.ErrorIs(t, err, blobstore.ErrNotFound)
			names, err := blobs.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}

	entries, err := os.ReadDir(filepath.Join(dir, "run-1"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files are removed")
}

func TestStore_InvalidBundle(t *testing.T) {
	store := NewStore(blobstore.NewMemoryStore())
	ctx := context.Background()

	b := testBundle(t, 4, 2)
	b.Shift = b.Shift[:3]
	_, err := store.Save(ctx, b)
	assert.ErrorIs(t, err, ErrInvalidBundle)

	b = testBundle(t, 4, 2)
	b.Q = mat.NewDense(3, 3, nil)
	_, err = store.Save(ctx, b)
	assert.ErrorIs(t, err, ErrInvalidBundle)

	for _, name := range []string{"a/b", CurrentBlob, ".hidden"} {
		b = testBundle(t, 4, 2)
		b.Name = name
		_, err = store.Save(ctx, b)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestStore_CommitCurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(blobstore.NewMemoryStore())

	_, err := store.Current(ctx)
	assert.ErrorIs(t, err, ErrNoCurrent)

	assert.ErrorIs(t, store.Commit(ctx, "run-1"), blobstore.ErrNotFound)

	for _, name := range []string{"run-1", "run-2"} {
		b := testBundle(t, 3, 2)
		b.Name = name
		_, err := store.Save(ctx, b)
		require.NoError(t, err)
	}

	require.NoError(t, store.Commit(ctx, "run-1"))
	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", current)

	require.NoError(t, store.Commit(ctx, "run-2"))
	current, err = store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", current)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1", "run-2"}, names)

	assert.Error(t, store.Delete(ctx, "run-2"))
	require.NoError(t, store.Delete(ctx, "run-1"))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-2"}, names)

	_, err = store.Load(ctx, "run-1")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestEncodeBlob(t *testing.T) {
	compressible := bytes.Repeat([]byte("semshift"), 1024)
	random := testutil.NewRNG(3).GaussianVectors(1, 64)[0]
	noise := make([]byte, 0, 8*len(random))
	for _, v := range random {
		noise = append(noise, byte(int(v*1e6)), byte(int(v*1e4)), byte(int(v*1e2)), byte(int(v)))
	}

	tests := []struct {
		name string
		data []byte
		c    Compression
		used Compression
	}{
		{"zstd", compressible, CompressionZSTD, CompressionZSTD},
		{"lz4", compressible, CompressionLZ4, CompressionLZ4},
		{"none", compressible, CompressionNone, CompressionNone},
		{"empty", nil, CompressionZSTD, CompressionNone},
		{"empty lz4", []byte{}, CompressionLZ4, CompressionNone},
		{"short", noise[:16], CompressionLZ4, CompressionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := encodeBlob(tt.data, tt.c)
			require.NoError(t, err)
			assert.Equal(t, byte(tt.used), enc[6])

			dec, err := decodeBlob(enc)
			require.NoError(t, err)
			assert.Equal(t, len(tt.data), len(dec))
			assert.True(t, bytes.Equal(tt.data, dec))
		})
	}
}

func TestDecodeBlob_Invalid(t *testing.T) {
	good, err := encodeBlob(bytes.Repeat([]byte{1}, 256), CompressionZSTD)
	require.NoError(t, err)

	badMagic := bytes.Clone(good)
	badMagic[0] ^= 0xFF
	badVersion := bytes.Clone(good)
	badVersion[4] = 9
	badCodec := bytes.Clone(good)
	badCodec[6] = 7

	for name, data := range map[string][]byte{
		"short":     good[:10],
		"magic":     badMagic,
		"version":   badVersion,
		"codec":     badCodec,
		"truncated": good[:len(good)-1],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeBlob(data)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}
