package sentences

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/semshift/occurrence"
	"github.com/hupe1980/semshift/shift"
	"github.com/hupe1980/semshift/wordvec"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// RandomAnchorMatches is the number of target lines paired with a random
// anchor line.
const RandomAnchorMatches = 3

// ErrNoCorpus is returned when a Corpus lacks its index, lines or space.
var ErrNoCorpus = errors.New("incomplete corpus")

// Corpus is one side of a mining request.
type Corpus struct {
	Occurrences *occurrence.Index
	Lines       LineSource
	Space       *wordvec.Space
}

func (c Corpus) validate() error {
	if c.Occurrences == nil || c.Lines == nil || c.Space == nil {
		return ErrNoCorpus
	}
	return nil
}

// Line is a corpus line with its zero-based number.
type Line struct {
	Number int
	Text   string
}

// Pair is a source line matched with a target line.
type Pair struct {
	Source     Line
	Target     Line
	Similarity float64
}

// Match is a target line scored against an anchor.
type Match struct {
	Line       Line
	Similarity float64
}

// Anchored is the result of RandomAnchor.
type Anchored struct {
	Anchor  Line
	Matches []Match
}

// Embed returns the sum of the vectors of the in-vocabulary tokens of line.
// A line without known tokens embeds to the zero vector.
func Embed(space *wordvec.Space, line string, tokenize occurrence.Tokenizer) []float64 {
	out := make([]float64, space.Dim())
	vectors := space.Vectors()
	row := make([]float64, space.Dim())
	for _, tok := range tokenize(line) {
		i, ok := space.Index(tok)
		if !ok {
			continue
		}
		mat.Row(row, i, vectors)
		vek.Add_Inplace(out, row)
	}
	return out
}

// MinerOptions configures a Miner.
type MinerOptions struct {
	// Tokenize splits lines before embedding.
	Tokenize occurrence.Tokenizer
	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

// Miner finds sentence pairs across two corpora aligned by Q.
type Miner struct {
	src, dst Corpus
	q        mat.Matrix
	opts     MinerOptions
}

// NewMiner returns a Miner. q is the D×D rotation taking source vectors
// into the target frame.
func NewMiner(src, dst Corpus, q mat.Matrix, optFns ...func(o *MinerOptions)) (*Miner, error) {
	opts := MinerOptions{Tokenize: occurrence.Fields}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tokenize == nil {
		opts.Tokenize = occurrence.Fields
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if err := src.validate(); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := dst.validate(); err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if q == nil {
		return nil, errors.New("nil rotation")
	}
	d := src.Space.Dim()
	if r, c := q.Dims(); r != d || c != dst.Space.Dim() {
		return nil, &wordvec.DimensionMismatchError{Expected: d, Actual: r}
	}
	return &Miner{src: src, dst: dst, q: q, opts: opts}, nil
}

// DissimilarPairs returns up to maxSent pairs of lines containing target,
// least similar first. Cells of the similarity matrix are accepted greedily
// so that every source line and every target line is used at most once.
func (m *Miner) DissimilarPairs(ctx context.Context, target string, maxSent int) ([]Pair, error) {
	c, err := m.candidates(ctx, target)
	if err != nil {
		return nil, err
	}

	n1, n2 := len(c.srcLines), len(c.dstLines)
	limit := min(maxSent, n1, n2)
	cells := shift.SmallestK(c.sims.RawMatrix().Data, limit)

	usedI := make(map[int]struct{}, limit)
	usedJ := make(map[int]struct{}, limit)
	pairs := make([]Pair, 0, limit)
	for _, cell := range cells {
		i, j := cell/n2, cell%n2
		if _, ok := usedI[i]; ok {
			continue
		}
		if _, ok := usedJ[j]; ok {
			continue
		}
		usedI[i] = struct{}{}
		usedJ[j] = struct{}{}
		pairs = append(pairs, Pair{
			Source:     c.srcLines[i],
			Target:     c.dstLines[j],
			Similarity: c.sims.At(i, j),
		})
	}

	m.opts.Logger.Debug("mined dissimilar pairs",
		"word", target, "source_lines", n1, "target_lines", n2, "pairs", len(pairs))
	return pairs, nil
}

// RandomAnchor picks one source line containing target uniformly at random
// and returns it with its least similar target lines.
func (m *Miner) RandomAnchor(ctx context.Context, target string, rng *rand.Rand) (*Anchored, error) {
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	c, err := m.candidates(ctx, target)
	if err != nil {
		return nil, err
	}

	i := rng.IntN(len(c.srcLines))
	row := c.sims.RawRowView(i)
	sel := shift.SmallestK(row, RandomAnchorMatches)

	out := &Anchored{Anchor: c.srcLines[i], Matches: make([]Match, len(sel))}
	for k, j := range sel {
		out.Matches[k] = Match{Line: c.dstLines[j], Similarity: row[j]}
	}
	return out, nil
}

type candidates struct {
	srcLines []Line
	dstLines []Line
	// sims[i][j] is the cosine similarity of rotated source line i and
	// target line j.
	sims *mat.Dense
}

func (m *Miner) candidates(ctx context.Context, target string) (*candidates, error) {
	srcIdx := m.src.Occurrences.Lines(target)
	dstIdx := m.dst.Occurrences.Lines(target)
	if len(srcIdx) == 0 || len(dstIdx) == 0 {
		return nil, &wordvec.WordNotFoundError{Word: target}
	}

	srcLines, srcEmb, err := m.embed(ctx, m.src, srcIdx)
	if err != nil {
		return nil, err
	}
	dstLines, dstEmb, err := m.embed(ctx, m.dst, dstIdx)
	if err != nil {
		return nil, err
	}

	var rotated mat.Dense
	rotated.Mul(srcEmb, m.q)
	normalizeRows(&rotated)
	normalizeRows(dstEmb)

	sims := mat.NewDense(len(srcLines), len(dstLines), nil)
	sims.Mul(&rotated, dstEmb.T())

	return &candidates{srcLines: srcLines, dstLines: dstLines, sims: sims}, nil
}

func (m *Miner) embed(ctx context.Context, c Corpus, idx []int) ([]Line, *mat.Dense, error) {
	texts, err := c.Lines.Lines(ctx, idx)
	if err != nil {
		return nil, nil, err
	}
	lines := make([]Line, len(idx))
	emb := mat.NewDense(len(idx), c.Space.Dim(), nil)
	for k, i := range idx {
		text, ok := texts[i]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %d", ErrLineNotFound, i)
		}
		lines[k] = Line{Number: i, Text: text}
		emb.SetRow(k, Embed(c.Space, text, m.opts.Tokenize))
	}
	return lines, emb, nil
}

func normalizeRows(m *mat.Dense) {
	r, _ := m.Dims()
	for i := range r {
		row := m.RawRowView(i)
		if n := vek.Norm(row); n > 0 {
			vek.MulNumber_Inplace(row, 1/n)
		}
	}
}
