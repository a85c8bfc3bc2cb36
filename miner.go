package semshift

import (
	"context"
	"time"

	"github.com/hupe1980/semshift/sentences"
)

// Miner finds example sentences for a word across the two corpora of an
// alignment.
type Miner struct {
	a *Alignment
	m *sentences.Miner
}

// Miner returns a Miner rotating src line embeddings by the alignment's Q.
// The corpus spaces must have the dimension of the alignment.
func (a *Alignment) Miner(src, dst sentences.Corpus, optFns ...func(o *sentences.MinerOptions)) (*Miner, error) {
	logger := a.engine.opts.logger.Logger
	fns := make([]func(o *sentences.MinerOptions), 0, len(optFns)+1)
	fns = append(fns, func(o *sentences.MinerOptions) { o.Logger = logger })
	fns = append(fns, optFns...)

	m, err := sentences.NewMiner(src, dst, a.q, fns...)
	if err != nil {
		return nil, translateError(err)
	}
	return &Miner{a: a, m: m}, nil
}

// DissimilarPairs returns up to maxSent one-to-one line pairs using word,
// least similar first.
func (m *Miner) DissimilarPairs(ctx context.Context, word string, maxSent int) ([]sentences.Pair, error) {
	start := time.Now()
	var (
		pairs []sentences.Pair
		err   error
	)
	if maxSent < 0 {
		err = ErrInvalidK
	} else {
		pairs, err = m.m.DissimilarPairs(ctx, word, maxSent)
		err = translateError(err)
	}
	m.record(ctx, word, "dissimilar", len(pairs), start, err)
	return pairs, err
}

// RandomAnchor picks a random source line using word and returns it with
// its least similar target lines.
func (m *Miner) RandomAnchor(ctx context.Context, word string) (*sentences.Anchored, error) {
	start := time.Now()
	out, err := m.m.RandomAnchor(ctx, word, m.a.engine.newRand())
	err = translateError(err)

	n := 0
	if out != nil {
		n = len(out.Matches)
	}
	m.record(ctx, word, "random anchor", n, start, err)
	return out, err
}

func (m *Miner) record(ctx context.Context, word, mode string, pairs int, start time.Time, err error) {
	e := m.a.engine
	e.opts.metricsCollector.RecordMining(pairs, time.Since(start), err)
	e.opts.logger.WithWord(word).LogMining(ctx, mode, pairs, err)
}
