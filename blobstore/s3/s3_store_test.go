package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/semshift/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real bucket when S3_BUCKET is set; credentials come from
// the default AWS chain.
func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	store := NewStore(s3.NewFromConfig(cfg), bucket, fmt.Sprintf("test-semshift-%d/", time.Now().UnixNano()))
	t.Cleanup(func() {
		names, _ := store.List(ctx, "")
		for _, name := range names {
			_ = store.Delete(ctx, name)
		}
	})

	matrix := make([]byte, 1<<20)
	_, _ = rand.Read(matrix)

	w, err := store.Create(ctx, "run-1/dists.mat")
	require.NoError(t, err)
	_, err = w.Write(matrix)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, store.Put(ctx, "run-1/manifest.json", []byte(`{"name":"run-1"}`)))

	names, err := store.List(ctx, "run-1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/dists.mat", "run-1/manifest.json"}, names)

	blob, err := store.Open(ctx, "run-1/dists.mat")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(len(matrix)), blob.Size())

	buf := make([]byte, 128)
	_, err = blob.ReadAt(ctx, buf, 4096)
	require.NoError(t, err)
	assert.Equal(t, matrix[4096:4224], buf)

	rc, err := blob.ReadRange(ctx, int64(len(matrix))-10, 100)
	require.NoError(t, err)
	tail, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, matrix[len(matrix)-10:], tail)

	got, err := blobstore.ReadAll(ctx, store, "run-1/manifest.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"run-1"}`, string(got))

	require.NoError(t, store.Delete(ctx, "run-1/dists.mat"))
	_, err = store.Open(ctx, "run-1/dists.mat")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
