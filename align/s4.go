package align

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/semshift/classifier"
	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// S4Report describes an S4 fit.
type S4Report struct {
	Landmarks    []string
	NonLandmarks []string

	// Iterations is the number of completed training rounds.
	Iterations int
	// Converged is true when the overlap criterion stopped the loop.
	Converged bool

	// Per-iteration histories.
	OverlapHistory []float64
	LossHistory    []float64
	LandmarkCounts []int
	// LandmarkLoss and OutlierLoss are the mean squared alignment errors on
	// landmarks and non-landmarks.
	LandmarkLoss []float64
	OutlierLoss  []float64

	// Classifier is the trained model.
	Classifier classifier.Classifier
}

func (*S4Report) Kind() Kind { return KindS4 }

type s4Run struct {
	cfg      S4
	env      Env
	features classifier.FeatureMode

	words []string
	x     mat.Matrix // original source
	y0    mat.Matrix // original target
	n, d  int

	q        *mat.Dense
	aligned  *mat.Dense
	landmark []bool
}

func (c S4) fit(ctx context.Context, src, dst *wordvec.Space, env Env) (*mat.Dense, *S4Report, error) {
	kind, features, err := c.Resolve()
	if err != nil {
		return nil, nil, err
	}

	r := &s4Run{
		cfg:      c,
		env:      env,
		features: features,
		words:    src.Words(),
		x:        src.Vectors(),
		y0:       dst.Vectors(),
	}
	r.n, r.d = r.x.Dims()

	if err := r.seed(src.Vocabulary()); err != nil {
		return nil, nil, err
	}
	if err := r.refit(); err != nil {
		return nil, nil, err
	}

	width, err := classifier.FeatureDim(features, r.d)
	if err != nil {
		return nil, nil, err
	}
	model, err := classifier.New(kind, width, env.Rand)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	report := &S4Report{Classifier: model}
	var overlapSum float64

	for iter := 0; iter < c.Iters; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		landmarks, others := r.partition()
		in, out := r.alignmentLoss(landmarks), r.alignmentLoss(others)

		x, labels, err := r.batch(landmarks, others)
		if err != nil {
			return nil, nil, err
		}
		stats, err := model.Train(x, labels)
		if err != nil {
			return nil, nil, err
		}

		all, err := r.allFeatures()
		if err != nil {
			return nil, nil, err
		}
		p, err := model.PredictProba(all)
		if err != nil {
			return nil, nil, err
		}

		next := r.landmark
		if c.updateLandmarks() {
			next = make([]bool, r.n)
			var count int
			for i, pi := range p {
				if pi < c.T {
					next[i] = true
					count++
				}
			}
			if count == 0 {
				env.Logger.Warn("s4 classifier rejected every word, keeping previous landmarks", "iter", iter)
				break
			}
		}

		overlap := jaccard(r.landmark, next)
		overlapSum += overlap

		report.LandmarkCounts = append(report.LandmarkCounts, len(landmarks))
		report.LossHistory = append(report.LossHistory, stats.Loss)
		report.LandmarkLoss = append(report.LandmarkLoss, in)
		report.OutlierLoss = append(report.OutlierLoss, out)
		report.OverlapHistory = append(report.OverlapHistory, overlap)
		report.Iterations = iter + 1

		if c.updateLandmarks() {
			r.landmark = next
			if err := r.refit(); err != nil {
				return nil, nil, err
			}
		}

		mean := overlapSum / float64(len(report.OverlapHistory))
		env.Logger.Debug("s4 iteration",
			"iter", iter, "landmarks", len(landmarks), "loss", stats.Loss,
			"accuracy", stats.Accuracy, "overlap", mean)

		if mean > c.TOverlap {
			report.Converged = true
			break
		}
	}

	landmarks, others := r.partition()
	report.Landmarks = r.wordsAt(landmarks)
	report.NonLandmarks = r.wordsAt(others)
	return r.q, report, nil
}

// seed marks the initial landmarks: the configured words, or else the closer
// half of the vocabulary after a global fit on every word.
func (r *s4Run) seed(vocab *wordvec.Vocabulary) error {
	r.landmark = make([]bool, r.n)

	if len(r.cfg.Landmarks) > 0 {
		for _, w := range r.cfg.Landmarks {
			i, ok := vocab.Index(w)
			if !ok {
				return &wordvec.WordNotFoundError{Word: w}
			}
			r.landmark[i] = true
		}
		return nil
	}

	q, err := Procrustes(r.x, r.y0)
	if err != nil {
		return err
	}
	var xq mat.Dense
	xq.Mul(r.x, q)

	dist := make([]float64, r.n)
	row := make([]float64, r.d)
	for i := range r.n {
		mat.Row(row, i, r.y0)
		dist[i] = floats.Distance(xq.RawRowView(i), row, 2)
	}
	order := rangeIndices(0, r.n)
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })

	half := max(r.n/2, 1)
	for _, i := range order[:half] {
		r.landmark[i] = true
	}
	return nil
}

// refit fits Q on the current landmarks from the original source and
// re-aligns the whole source with it.
func (r *s4Run) refit() error {
	landmarks, _ := r.partition()
	q, err := fitRows(r.x, r.y0, landmarks)
	if err != nil {
		return err
	}
	r.q = q
	r.aligned = mat.NewDense(r.n, r.d, nil)
	r.aligned.Mul(r.x, q)
	return nil
}

func (r *s4Run) partition() (landmarks, others []int) {
	for i, l := range r.landmark {
		if l {
			landmarks = append(landmarks, i)
		} else {
			others = append(others, i)
		}
	}
	return landmarks, others
}

// batch draws NTargets perturbed non-landmarks (label 1) and NNegatives
// untouched landmarks (label 0), shuffled.
func (r *s4Run) batch(landmarks, others []int) (*mat.Dense, []float64, error) {
	rng := r.env.Rand
	pool := others
	if len(pool) == 0 {
		pool = rangeIndices(0, r.n)
	}

	size := r.cfg.NTargets + r.cfg.NNegatives
	src := make([][]float64, 0, size)
	dst := make([][]float64, 0, size)
	labels := make([]float64, 0, size)

	for range r.cfg.NTargets {
		i := pool[rng.IntN(len(pool))]
		xa := r.aligned.RawRowView(i)
		y := mat.Row(nil, i, r.y0)
		src = append(src, xa)
		dst = append(dst, InjectChange(y, xa, r.y0, r.cfg.Rate, r.cfg.MaxTries, rng))
		labels = append(labels, 1)
	}
	for range r.cfg.NNegatives {
		i := landmarks[rng.IntN(len(landmarks))]
		src = append(src, r.aligned.RawRowView(i))
		dst = append(dst, mat.Row(nil, i, r.y0))
		labels = append(labels, 0)
	}

	rng.Shuffle(len(labels), func(a, b int) {
		src[a], src[b] = src[b], src[a]
		dst[a], dst[b] = dst[b], dst[a]
		labels[a], labels[b] = labels[b], labels[a]
	})

	x, err := classifier.BuildFeatures(r.features, src, dst)
	if err != nil {
		return nil, nil, err
	}
	return x, labels, nil
}

func (r *s4Run) allFeatures() (*mat.Dense, error) {
	src := make([][]float64, r.n)
	dst := make([][]float64, r.n)
	for i := range r.n {
		src[i] = r.aligned.RawRowView(i)
		dst[i] = mat.Row(nil, i, r.y0)
	}
	return classifier.BuildFeatures(r.features, src, dst)
}

// alignmentLoss is the mean squared distance between aligned source and
// target over idx, or 0 for an empty set.
func (r *s4Run) alignmentLoss(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	row := make([]float64, r.d)
	var sum float64
	for _, i := range idx {
		mat.Row(row, i, r.y0)
		sum += sqDist(r.aligned.RawRowView(i), row)
	}
	return sum / float64(len(idx))
}

func (r *s4Run) wordsAt(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = r.words[i]
	}
	return out
}

// jaccard returns |a ∩ b| / |a ∪ b| of two membership masks, or 1 when both
// are empty.
func jaccard(a, b []bool) float64 {
	var inter, union int
	for i := range a {
		if a[i] && b[i] {
			inter++
		}
		if a[i] || b[i] {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}
