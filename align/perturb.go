package align

import (
	"math/rand/v2"

	"github.com/hupe1980/semshift/classifier"
	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// InjectChange simulates semantic drift of a target vector y by blending in
// the vector of a randomly chosen word from pool: y + rate·pool[k]. It
// resamples k until the blend is further from the aligned source vector xa
// (in cosine distance) than y itself, or maxTries draws were made.
func InjectChange(y, xa []float64, pool mat.Matrix, rate float64, maxTries int, rng *rand.Rand) []float64 {
	n, d := pool.Dims()
	threshold := classifier.CosineDistance(xa, y)

	vb := make([]float64, d)
	copy(vb, y)

	other := make([]float64, d)
	c := 0.0
	for tries := 0; c < threshold && tries < maxTries; tries++ {
		mat.Row(other, rng.IntN(n), pool)
		copy(vb, other)
		vek.MulNumber_Inplace(vb, rate)
		vek.Add_Inplace(vb, y)
		c = classifier.CosineDistance(xa, vb)
	}
	return vb
}
