package align

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/mat"
)

// GlobalReport describes a Global fit.
type GlobalReport struct {
	// Anchors are the row indices Q was fitted on.
	Anchors []int
}

func (*GlobalReport) Kind() Kind { return KindGlobal }

// Anchors resolves the anchor rows of g against vocab.
func (g Global) Anchors(vocab *wordvec.Vocabulary, rng *rand.Rand, logger *slog.Logger) ([]int, error) {
	n := vocab.Len()

	if modes := g.modes(); len(modes) > 1 && logger != nil {
		logger.Warn("multiple anchor modes set, using the first", "modes", modes, "used", modes[0])
	}

	var candidates []int
	switch {
	case g.AnchorIndices != nil:
		for _, i := range g.AnchorIndices {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("%w: anchor index %d out of range [0,%d)", ErrConfig, i, n)
			}
		}
		candidates = g.AnchorIndices
	case g.AnchorTop != nil:
		candidates = rangeIndices(0, min(*g.AnchorTop, n))
	case g.AnchorBot != nil:
		candidates = rangeIndices(n-min(*g.AnchorBot, n), n)
	case g.AnchorRandom != nil:
		if rng == nil {
			return nil, fmt.Errorf("%w: anchor_random needs a random source", ErrConfig)
		}
		candidates = rng.Perm(n)[:min(*g.AnchorRandom, n)]
	case g.AnchorWords != nil:
		candidates = make([]int, 0, len(g.AnchorWords))
		for _, w := range g.AnchorWords {
			i, ok := vocab.Index(w)
			if !ok {
				return nil, &wordvec.WordNotFoundError{Word: w}
			}
			candidates = append(candidates, i)
		}
	default:
		candidates = rangeIndices(0, n)
	}

	excluded := make(map[string]struct{}, len(g.Exclude))
	for _, w := range g.Exclude {
		excluded[w] = struct{}{}
	}

	anchors := make([]int, 0, len(candidates))
	for _, i := range candidates {
		w, _ := vocab.Word(i)
		if _, skip := excluded[w]; skip {
			continue
		}
		anchors = append(anchors, i)
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("%w: empty anchor set", ErrConfig)
	}
	return anchors, nil
}

func (g Global) fit(src, dst *wordvec.Space, env Env) (*mat.Dense, *GlobalReport, error) {
	anchors, err := g.Anchors(src.Vocabulary(), env.Rand, env.Logger)
	if err != nil {
		return nil, nil, err
	}
	q, err := fitRows(src.Vectors(), dst.Vectors(), anchors)
	if err != nil {
		return nil, nil, err
	}
	env.Logger.Debug("global alignment fitted", "name", g.Name, "anchors", len(anchors))
	return q, &GlobalReport{Anchors: anchors}, nil
}

func rangeIndices(from, to int) []int {
	out := make([]int, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
