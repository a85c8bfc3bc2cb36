package semshift

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/semshift/align"
	"github.com/hupe1980/semshift/artifact"
	"github.com/hupe1980/semshift/shift"
	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/mat"
)

// Engine runs alignments and serves queries over their results.
// It is safe for concurrent use.
type Engine struct {
	opts options

	mu    sync.Mutex // guards opts.rand
	calls atomic.Uint64
}

// New returns an Engine.
func New(optFns ...Option) *Engine {
	return &Engine{opts: applyOptions(optFns)}
}

// newRand returns the generator for one stochastic call.
func (e *Engine) newRand() *rand.Rand {
	if e.opts.rand != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return rand.New(rand.NewPCG(e.opts.rand.Uint64(), e.opts.rand.Uint64()))
	}
	return rand.New(rand.NewPCG(e.opts.seed, e.calls.Add(1)-1))
}

// Align intersects src and dst, fits the rotation selected by cfg and
// computes per-word shifts and cross distances. The common vocabulary keeps
// the order of src.
func (e *Engine) Align(ctx context.Context, src, dst *wordvec.Space, cfg align.Config) (*Alignment, error) {
	start := time.Now()
	a, err := e.align(ctx, src, dst, cfg)
	err = translateError(err)

	var words, dim int
	if a != nil {
		words, dim = len(a.common), a.Dim()
	}
	var kind align.Kind
	if cfg != nil {
		kind = cfg.Kind()
	}
	e.opts.metricsCollector.RecordAlign(words, time.Since(start), err)
	e.opts.logger.LogAlign(ctx, kind, words, dim, err)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (e *Engine) align(ctx context.Context, src, dst *wordvec.Space, cfg align.Config) (*Alignment, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: nil space", ErrInvalidRequest)
	}
	if src == dst {
		return nil, fmt.Errorf("%w: cannot align a space with itself", ErrInvalidRequest)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil alignment config", ErrConfig)
	}

	spaces, err := wordvec.Intersect(src, dst)
	if err != nil {
		return nil, err
	}
	res, err := align.Run(ctx, cfg, spaces[0], spaces[1], align.Env{
		Rand:   e.newRand(),
		Logger: e.opts.logger.Logger,
	})
	if err != nil {
		return nil, err
	}

	v1 := res.Aligned.Dense()
	v2 := spaces[1].Dense()
	shifts, err := shift.Compute(v1, v2)
	if err != nil {
		return nil, err
	}
	dists, err := shift.CrossDistances(ctx, v1, v2, e.opts.workers)
	if err != nil {
		return nil, err
	}

	return &Alignment{
		engine: e,
		config: cfg,
		report: res.Report,
		common: spaces[0].Words(),
		v1:     v1,
		v2:     v2,
		q:      res.Q,
		shifts: shifts,
		dists:  dists,
	}, nil
}

// FromBundle restores an Alignment from persisted artifacts. The strategy
// report is not persisted, so Report returns nil.
func (e *Engine) FromBundle(b *artifact.Bundle) (*Alignment, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil bundle", ErrInvalidRequest)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	var cfg align.Config
	if len(b.Config) > 0 {
		var err error
		if cfg, err = align.ParseConfig(b.Config); err != nil {
			return nil, translateError(err)
		}
	}
	return &Alignment{
		engine: e,
		config: cfg,
		common: slices.Clone(b.Common),
		v1:     mat.DenseCopyOf(b.V1),
		v2:     mat.DenseCopyOf(b.V2),
		q:      mat.DenseCopyOf(b.Q),
		shifts: slices.Clone(b.Shift),
		dists:  mat.DenseCopyOf(b.Dists),
	}, nil
}

// Load reads the named bundle from store. An empty name loads the
// committed bundle.
func (e *Engine) Load(ctx context.Context, store *artifact.Store, name string) (*Alignment, error) {
	if name == "" {
		current, err := store.Current(ctx)
		if err != nil {
			if errors.Is(err, artifact.ErrNoCurrent) {
				return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
			}
			return nil, err
		}
		name = current
	}
	b, err := store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.FromBundle(b)
}

// Alignment is the immutable result of Engine.Align.
type Alignment struct {
	engine *Engine
	config align.Config
	report align.Report

	common []string
	v1     *mat.Dense
	v2     *mat.Dense
	q      *mat.Dense
	shifts []float64
	dists  *mat.Dense
}

// Config returns the configuration the alignment was fitted with, or nil
// for bundles saved without one.
func (a *Alignment) Config() align.Config { return a.config }

// Report returns the strategy specific report, nil for restored bundles.
func (a *Alignment) Report() align.Report { return a.report }

// Len returns the size of the common vocabulary.
func (a *Alignment) Len() int { return len(a.common) }

// Dim returns the embedding dimension.
func (a *Alignment) Dim() int {
	_, d := a.q.Dims()
	return d
}

// Common returns a copy of the common vocabulary.
func (a *Alignment) Common() []string { return slices.Clone(a.common) }

// Shift returns a copy of the per-word shifts, in vocabulary order.
func (a *Alignment) Shift() []float64 { return slices.Clone(a.shifts) }

// V1 returns the rotated source vectors. The matrix must not be modified.
func (a *Alignment) V1() mat.Matrix { return a.v1 }

// V2 returns the target vectors. The matrix must not be modified.
func (a *Alignment) V2() mat.Matrix { return a.v2 }

// Q returns the rotation. The matrix must not be modified.
func (a *Alignment) Q() mat.Matrix { return a.q }

// Dists returns the cross distance matrix. The matrix must not be modified.
func (a *Alignment) Dists() mat.Matrix { return a.dists }

// TopShiftedWords returns the k words with the largest shift, descending.
// k is clamped to Len()-1.
func (a *Alignment) TopShiftedWords(ctx context.Context, k int) ([]shift.WordShift, error) {
	start := time.Now()
	out, err := shift.TopShifted(a.common, a.shifts, k)
	err = translateError(err)
	a.engine.opts.metricsCollector.RecordQuery(k, time.Since(start), err)
	a.engine.opts.logger.LogQuery(ctx, "top shifted", k, len(out), err)
	return out, err
}

// Context returns the k nearest neighbours of word in the other space. With
// shift.Source the word is looked up among the rotated source vectors and
// its neighbours are target words, with shift.Target the other way round.
func (a *Alignment) Context(ctx context.Context, word string, dir shift.Direction, k int) (*shift.Neighbors, error) {
	start := time.Now()
	n, err := shift.Context(a.common, a.v1, a.v2, a.dists, word, dir, k)
	err = translateError(err)

	results := 0
	if n != nil {
		results = len(n.Words)
	}
	a.engine.opts.metricsCollector.RecordQuery(k, time.Since(start), err)
	a.engine.opts.logger.WithWord(word).LogQuery(ctx, "context", k, results, err)
	return n, err
}

// ToBundle converts the alignment for persistence. An empty name lets
// artifact.Store assign one.
func (a *Alignment) ToBundle(name string) (*artifact.Bundle, error) {
	var cfg []byte
	if a.config != nil {
		var err error
		if cfg, err = align.Marshal(a.config); err != nil {
			return nil, translateError(err)
		}
	}
	return &artifact.Bundle{
		Name:   name,
		Config: cfg,
		Common: slices.Clone(a.common),
		V1:     mat.DenseCopyOf(a.v1),
		V2:     mat.DenseCopyOf(a.v2),
		Q:      mat.DenseCopyOf(a.q),
		Shift:  slices.Clone(a.shifts),
		Dists:  mat.DenseCopyOf(a.dists),
	}, nil
}
