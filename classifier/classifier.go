// Package classifier provides the binary classifiers used by self-supervised
// landmark discovery: a small multilayer perceptron trained with RMSprop and
// an RBF support vector machine with Platt-scaled probabilities.
//
// Both operate on feature rows built from a (source, target) vector pair,
// either the concatenation of the two vectors or their cosine distance.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrUnknownKind is returned for an unsupported classifier kind.
	ErrUnknownKind = errors.New("unknown classifier kind")

	// ErrUnknownFeatures is returned for an unsupported feature mode.
	ErrUnknownFeatures = errors.New("unknown feature mode")

	// ErrNotTrained is returned by PredictProba before the first Train call.
	ErrNotTrained = errors.New("classifier not trained")
)

// Kind names a classifier implementation.
type Kind string

const (
	// KindMLP is a one hidden layer perceptron updated one batch per Train call.
	KindMLP Kind = "nn"
	// KindSVM is an RBF support vector machine refit on every Train call.
	KindSVM Kind = "svm"
)

// FeatureMode selects how a (source, target) pair becomes a feature row.
type FeatureMode string

const (
	// Concat uses the source vector followed by the target vector.
	Concat FeatureMode = "concat"
	// Cosine uses the single cosine distance between the two vectors.
	Cosine FeatureMode = "cosine"
)

// Stats summarizes a training step on the batch it was given.
type Stats struct {
	// Loss is the binary cross-entropy of the batch.
	Loss float64
	// Accuracy is the fraction of the batch classified correctly at 0.5.
	Accuracy float64
}

// Classifier is a binary classifier producing P(label = 1).
type Classifier interface {
	// Train fits the model on rows of x with labels y in {0, 1}.
	Train(x *mat.Dense, y []float64) (Stats, error)
	// PredictProba returns P(label = 1) for every row of x.
	PredictProba(x mat.Matrix) ([]float64, error)
	// Kind returns the classifier kind.
	Kind() Kind
}

// New returns an untrained classifier for inputs of the given width.
// rng seeds weight initialization and must not be nil for KindMLP.
func New(kind Kind, inputDim int, rng *rand.Rand) (Classifier, error) {
	if inputDim <= 0 {
		return nil, fmt.Errorf("classifier: invalid input dimension %d", inputDim)
	}
	switch kind {
	case KindMLP:
		if rng == nil {
			return nil, errors.New("classifier: nil random source")
		}
		return NewMLP(inputDim, rng), nil
	case KindSVM:
		return NewSVM(inputDim), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// FeatureDim returns the width of a feature row for vectors of dimension d.
func FeatureDim(mode FeatureMode, d int) (int, error) {
	switch mode {
	case Concat:
		return 2 * d, nil
	case Cosine:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFeatures, mode)
	}
}

// AppendFeatures appends the feature row of the pair (src, dst) to row.
func AppendFeatures(row []float64, mode FeatureMode, src, dst []float64) []float64 {
	if mode == Cosine {
		return append(row, CosineDistance(src, dst))
	}
	row = append(row, src...)
	return append(row, dst...)
}

// BuildFeatures stacks the feature rows of the pairs (src[i], dst[i]).
func BuildFeatures(mode FeatureMode, src, dst [][]float64) (*mat.Dense, error) {
	if len(src) == 0 || len(src) != len(dst) {
		return nil, fmt.Errorf("classifier: %d source rows but %d target rows", len(src), len(dst))
	}
	width, err := FeatureDim(mode, len(src[0]))
	if err != nil {
		return nil, err
	}

	data := make([]float64, 0, len(src)*width)
	for i := range src {
		data = AppendFeatures(data, mode, src[i], dst[i])
	}
	return mat.NewDense(len(src), width, data), nil
}

// CosineDistance returns 1 − cos(a, b). A zero vector is at distance 1 from
// everything.
func CosineDistance(a, b []float64) float64 {
	na, nb := vek.Norm(a), vek.Norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - vek.Dot(a, b)/(na*nb)
}

const probEpsilon = 1e-7

// LogLoss returns the mean binary cross-entropy of probabilities p for labels y.
func LogLoss(y, p []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var sum float64
	for i := range y {
		pi := min(max(p[i], probEpsilon), 1-probEpsilon)
		sum -= y[i]*math.Log(pi) + (1-y[i])*math.Log(1-pi)
	}
	return sum / float64(len(y))
}

// Accuracy returns the fraction of p on the same side of 0.5 as y.
func Accuracy(y, p []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	var hits int
	for i := range y {
		if (p[i] > 0.5) == (y[i] > 0.5) {
			hits++
		}
	}
	return float64(hits) / float64(len(y))
}

func checkBatch(x mat.Matrix, y []float64, width int) error {
	r, c := x.Dims()
	if c != width {
		return fmt.Errorf("classifier: expected %d features, got %d", width, c)
	}
	if y != nil && r != len(y) {
		return fmt.Errorf("classifier: %d rows but %d labels", r, len(y))
	}
	if r == 0 {
		return errors.New("classifier: empty batch")
	}
	return nil
}
