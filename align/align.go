package align

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/mat"
)

// Env carries the collaborators of an alignment run.
type Env struct {
	// Rand drives every random choice of the run. When nil, Run uses a
	// generator with a fixed seed.
	Rand *rand.Rand
	// Logger receives warnings and per-iteration debug records. When nil,
	// output is discarded.
	Logger *slog.Logger
}

// Report is the strategy specific part of a Result: *GlobalReport,
// *NoiseAwareReport or *S4Report.
type Report interface {
	Kind() Kind
}

// Result is the outcome of Run.
type Result struct {
	// Q is the D×D orthogonal rotation.
	Q *mat.Dense
	// Aligned is the source space rotated by Q.
	Aligned *wordvec.Space
	Report  Report
}

// Run fits the rotation selected by cfg and applies it to every source word.
// src and dst must hold the same words in the same order.
func Run(ctx context.Context, cfg Config, src, dst *wordvec.Space, env Env) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkPair(src, dst); err != nil {
		return nil, err
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(0, 0))
	}
	if env.Logger == nil {
		env.Logger = slog.New(slog.DiscardHandler)
	}

	var (
		q      *mat.Dense
		report Report
		err    error
	)
	switch c := cfg.(type) {
	case Global:
		q, report, err = c.fit(src, dst, env)
	case *Global:
		q, report, err = c.fit(src, dst, env)
	case NoiseAware:
		q, report, err = c.fit(ctx, src, dst, env)
	case *NoiseAware:
		q, report, err = c.fit(ctx, src, dst, env)
	case S4:
		q, report, err = c.fit(ctx, src, dst, env)
	case *S4:
		q, report, err = c.fit(ctx, src, dst, env)
	default:
		return nil, fmt.Errorf("%w: unsupported config %T", ErrConfig, cfg)
	}
	if err != nil {
		return nil, err
	}

	aligned, err := src.Rotate(q)
	if err != nil {
		return nil, err
	}
	return &Result{Q: q, Aligned: aligned, Report: report}, nil
}

func checkPair(src, dst *wordvec.Space) error {
	if src == nil || dst == nil {
		return fmt.Errorf("%w: nil space", ErrConfig)
	}
	if src.Dim() != dst.Dim() {
		return &wordvec.DimensionMismatchError{Expected: src.Dim(), Actual: dst.Dim()}
	}
	if src.Len() != dst.Len() {
		return fmt.Errorf("%w: %d source words, %d target words", ErrVocabularyMismatch, src.Len(), dst.Len())
	}
	sv, dv := src.Vocabulary(), dst.Vocabulary()
	for i := range src.Len() {
		a, _ := sv.Word(i)
		b, _ := dv.Word(i)
		if a != b {
			return fmt.Errorf("%w: row %d is %q in source, %q in target", ErrVocabularyMismatch, i, a, b)
		}
	}
	return nil
}
