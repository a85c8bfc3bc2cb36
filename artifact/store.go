package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/semshift/blobstore"
	"github.com/hupe1980/semshift/codec"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Options configures a Store.
type Options struct {
	// Compression applies to matrix blobs. Default: CompressionZSTD.
	Compression Compression
	// Codec encodes vocabulary and shift blobs. Default: codec.Default.
	// Manifests are always JSON.
	Codec codec.Codec
	// IOLimitBytesPerSec caps the write rate of Save. 0 means unlimited.
	IOLimitBytesPerSec int64
	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
	// Now is the clock used to stamp bundles.
	Now func() time.Time
}

// DefaultOptions returns the default Store options.
func DefaultOptions() Options {
	return Options{
		Compression: CompressionZSTD,
		Codec:       codec.Default,
		Now:         time.Now,
	}
}

// Store reads and writes bundles. It is safe for concurrent use if the
// underlying BlobStore is.
type Store struct {
	blobs   blobstore.BlobStore
	opts    Options
	limiter *ioLimiter
}

// NewStore returns a Store over blobs.
func NewStore(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Store {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		blobs:   blobs,
		opts:    opts,
		limiter: newIOLimiter(opts.IOLimitBytesPerSec),
	}
}

// Save validates b and writes it. The manifest is written after every other
// blob, so a readable manifest implies a complete bundle. It returns the
// bundle name.
func (s *Store) Save(ctx context.Context, b *Bundle) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	name := b.Name
	if name == "" {
		name = uuid.NewString()
	}
	if err := validName(name); err != nil {
		return "", err
	}
	created := b.CreatedAt
	if created.IsZero() {
		created = s.opts.Now().UTC()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.opts.Codec.Marshal(b.Common)
		if err != nil {
			return fmt.Errorf("encode common: %w", err)
		}
		return s.write(gctx, path.Join(name, CommonBlob), data)
	})
	g.Go(func() error {
		data, err := s.opts.Codec.Marshal(b.Shift)
		if err != nil {
			return fmt.Errorf("encode shift: %w", err)
		}
		return s.write(gctx, path.Join(name, ShiftBlob), data)
	})
	for m, d := range map[Matrix]*mat.Dense{MatrixV1: b.V1, MatrixV2: b.V2, MatrixQ: b.Q, MatrixDists: b.Dists} {
		g.Go(func() error {
			raw, err := d.MarshalBinary()
			if err != nil {
				return fmt.Errorf("encode %s: %w", m, err)
			}
			data, err := encodeBlob(raw, s.opts.Compression)
			if err != nil {
				return fmt.Errorf("compress %s: %w", m, err)
			}
			return s.write(gctx, path.Join(name, m.blob()), data)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	_, dim := b.V1.Dims()
	manifest := Manifest{
		FormatVersion: FormatVersion,
		Name:          name,
		CreatedAt:     created,
		Codec:         s.opts.Codec.Name(),
		Compression:   s.opts.Compression.String(),
		Words:         len(b.Common),
		Dim:           dim,
		Config:        b.Config,
		Blobs:         []string{CommonBlob, ShiftBlob},
	}
	for _, m := range Matrices {
		manifest.Blobs = append(manifest.Blobs, m.blob())
	}
	data, err := codec.JSON{}.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := s.write(ctx, path.Join(name, ManifestBlob), data); err != nil {
		return "", err
	}

	s.opts.Logger.Debug("saved bundle", "name", name, "words", manifest.Words, "dim", dim,
		"compression", manifest.Compression)
	return name, nil
}

// write stores data under key, throttled by the IO limit when one is set.
func (s *Store) write(ctx context.Context, key string, data []byte) error {
	if s.limiter == nil {
		if err := s.blobs.Put(ctx, key, data); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		return nil
	}

	w, err := s.blobs.Create(ctx, key)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	for chunk := range slices.Chunk(data, s.limiter.chunk()) {
		if err := s.limiter.acquire(ctx, len(chunk)); err != nil {
			_ = blobstore.Abort(w)
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			_ = blobstore.Abort(w)
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, name, blob string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := blobstore.ReadAll(ctx, s.blobs, path.Join(name, blob))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", name, blob, err)
	}
	return data, nil
}

// Manifest loads the manifest of the named bundle.
func (s *Store) Manifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := s.read(ctx, name, ManifestBlob)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := (codec.JSON{}).Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrInvalidFormat, err)
	}
	if m.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: manifest version %d", ErrInvalidFormat, m.FormatVersion)
	}
	return &m, nil
}

func (s *Store) codecFor(ctx context.Context, name string) (codec.Codec, error) {
	m, err := s.Manifest(ctx, name)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidFormat, m.Codec)
	}
	return c, nil
}

// LoadCommon loads only the shared vocabulary.
func (s *Store) LoadCommon(ctx context.Context, name string) ([]string, error) {
	c, err := s.codecFor(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.loadCommon(ctx, name, c)
}

func (s *Store) loadCommon(ctx context.Context, name string, c codec.Codec) ([]string, error) {
	data, err := s.read(ctx, name, CommonBlob)
	if err != nil {
		return nil, err
	}
	var common []string
	if err := c.Unmarshal(data, &common); err != nil {
		return nil, fmt.Errorf("%w: common: %w", ErrInvalidFormat, err)
	}
	return common, nil
}

// LoadShift loads only the shift values.
func (s *Store) LoadShift(ctx context.Context, name string) ([]float64, error) {
	c, err := s.codecFor(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.loadShift(ctx, name, c)
}

func (s *Store) loadShift(ctx context.Context, name string, c codec.Codec) ([]float64, error) {
	data, err := s.read(ctx, name, ShiftBlob)
	if err != nil {
		return nil, err
	}
	var shift []float64
	if err := c.Unmarshal(data, &shift); err != nil {
		return nil, fmt.Errorf("%w: shift: %w", ErrInvalidFormat, err)
	}
	return shift, nil
}

// LoadMatrix loads a single matrix.
func (s *Store) LoadMatrix(ctx context.Context, name string, m Matrix) (*mat.Dense, error) {
	if !slices.Contains(Matrices, m) {
		return nil, fmt.Errorf("unknown matrix %q", m)
	}
	data, err := s.read(ctx, name, m.blob())
	if err != nil {
		return nil, err
	}
	raw, err := decodeBlob(data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", name, m.blob(), err)
	}
	var d mat.Dense
	if err := d.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFormat, m, err)
	}
	return &d, nil
}

// Load reads a complete bundle, fetching its blobs concurrently.
func (s *Store) Load(ctx context.Context, name string) (*Bundle, error) {
	manifest, err := s.Manifest(ctx, name)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(manifest.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrInvalidFormat, manifest.Codec)
	}

	b := &Bundle{Name: manifest.Name, Config: manifest.Config, CreatedAt: manifest.CreatedAt}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Common, err = s.loadCommon(gctx, name, c)
		return err
	})
	g.Go(func() (err error) {
		b.Shift, err = s.loadShift(gctx, name, c)
		return err
	})
	for m, dst := range map[Matrix]**mat.Dense{MatrixV1: &b.V1, MatrixV2: &b.V2, MatrixQ: &b.Q, MatrixDists: &b.Dists} {
		g.Go(func() (err error) {
			*dst, err = s.LoadMatrix(gctx, name, m)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return b, nil
}

// List returns the names of all bundles with a manifest, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		dir, file := path.Split(k)
		if file != ManifestBlob {
			continue
		}
		if name := strings.TrimSuffix(dir, "/"); validName(name) == nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Delete removes a bundle, manifest first. Deleting the committed bundle is
// refused.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	current, err := s.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoCurrent) {
		return err
	}
	if current == name {
		return fmt.Errorf("bundle %q is committed", name)
	}

	if err := s.blobs.Delete(ctx, path.Join(name, ManifestBlob)); err != nil {
		return err
	}
	blobs := []string{CommonBlob, ShiftBlob}
	for _, m := range Matrices {
		blobs = append(blobs, m.blob())
	}
	for _, blob := range blobs {
		if err := s.blobs.Delete(ctx, path.Join(name, blob)); err != nil {
			return err
		}
	}
	return nil
}

// Commit points CURRENT at the named bundle, which must exist.
func (s *Store) Commit(ctx context.Context, name string) error {
	if _, err := s.Manifest(ctx, name); err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, CurrentBlob, []byte(name)); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}
	s.opts.Logger.Debug("committed bundle", "name", name)
	return nil
}

// Current returns the committed bundle name, or ErrNoCurrent.
func (s *Store) Current(ctx context.Context) (string, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, CurrentBlob)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoCurrent
		}
		return "", err
	}
	name := string(bytes.TrimSpace(data))
	if err := validName(name); err != nil {
		return "", fmt.Errorf("%w: CURRENT: %w", ErrInvalidFormat, err)
	}
	return name, nil
}
