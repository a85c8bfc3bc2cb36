package classifier

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// MLP hyperparameters.
const (
	HiddenUnits  = 100
	ActivityL2   = 1e-2
	LearningRate = 1e-3
	RMSpropRho   = 0.9
	RMSpropEps   = 1e-7
)

// MLP is a binary classifier with one ReLU hidden layer and a sigmoid output.
// The hidden activations carry an L2 activity penalty. Each Train call runs a
// single RMSprop step on the batch.
type MLP struct {
	in int

	w1 *mat.Dense
	b1 []float64
	w2 []float64
	b2 float64

	// RMSprop accumulators.
	vw1 *mat.Dense
	vb1 []float64
	vw2 []float64
	vb2 float64

	trained bool
}

// NewMLP returns an MLP with Glorot-uniform weights drawn from rng and zero biases.
func NewMLP(inputDim int, rng *rand.Rand) *MLP {
	m := &MLP{
		in:  inputDim,
		w1:  mat.NewDense(inputDim, HiddenUnits, nil),
		b1:  make([]float64, HiddenUnits),
		w2:  make([]float64, HiddenUnits),
		vw1: mat.NewDense(inputDim, HiddenUnits, nil),
		vb1: make([]float64, HiddenUnits),
		vw2: make([]float64, HiddenUnits),
	}

	limit1 := math.Sqrt(6 / float64(inputDim+HiddenUnits))
	raw := m.w1.RawMatrix().Data
	for i := range raw {
		raw[i] = (rng.Float64()*2 - 1) * limit1
	}

	limit2 := math.Sqrt(6 / float64(HiddenUnits+1))
	for i := range m.w2 {
		m.w2[i] = (rng.Float64()*2 - 1) * limit2
	}
	return m
}

// Kind implements Classifier.
func (m *MLP) Kind() Kind { return KindMLP }

// forward returns the pre-activations, the hidden activations and the output
// probabilities for x.
func (m *MLP) forward(x mat.Matrix) (*mat.Dense, *mat.Dense, []float64) {
	r, _ := x.Dims()

	z1 := mat.NewDense(r, HiddenUnits, nil)
	z1.Mul(x, m.w1)
	a1 := mat.NewDense(r, HiddenUnits, nil)
	for i := range r {
		zr := z1.RawRowView(i)
		ar := a1.RawRowView(i)
		for j := range zr {
			zr[j] += m.b1[j]
			ar[j] = max(zr[j], 0)
		}
	}

	p := make([]float64, r)
	out := mat.NewVecDense(r, p)
	out.MulVec(a1, mat.NewVecDense(HiddenUnits, m.w2))
	for i := range p {
		p[i] = sigmoid(p[i] + m.b2)
	}
	return z1, a1, p
}

// Train runs one RMSprop step on the batch and returns the batch loss
// measured before the update.
func (m *MLP) Train(x *mat.Dense, y []float64) (Stats, error) {
	if err := checkBatch(x, y, m.in); err != nil {
		return Stats{}, err
	}
	r, _ := x.Dims()
	batch := float64(r)

	z1, a1, p := m.forward(x)

	var reg float64
	for _, v := range a1.RawMatrix().Data {
		reg += v * v
	}
	stats := Stats{
		Loss:     LogLoss(y, p) + ActivityL2*reg/batch,
		Accuracy: Accuracy(y, p),
	}

	// Output layer.
	dz2 := make([]float64, r)
	var db2 float64
	for i := range dz2 {
		dz2[i] = (p[i] - y[i]) / batch
		db2 += dz2[i]
	}
	dw2 := make([]float64, HiddenUnits)
	mat.NewVecDense(HiddenUnits, dw2).MulVec(a1.T(), mat.NewVecDense(r, dz2))

	// Hidden layer, including the activity penalty.
	dz1 := mat.NewDense(r, HiddenUnits, nil)
	for i := range r {
		zr := z1.RawRowView(i)
		ar := a1.RawRowView(i)
		dr := dz1.RawRowView(i)
		for j := range dr {
			if zr[j] <= 0 {
				continue
			}
			dr[j] = dz2[i]*m.w2[j] + 2*ActivityL2*ar[j]/batch
		}
	}
	var dw1 mat.Dense
	dw1.Mul(x.T(), dz1)
	db1 := make([]float64, HiddenUnits)
	for i := range r {
		for j, v := range dz1.RawRowView(i) {
			db1[j] += v
		}
	}

	rmsprop(m.w1.RawMatrix().Data, dw1.RawMatrix().Data, m.vw1.RawMatrix().Data)
	rmsprop(m.b1, db1, m.vb1)
	rmsprop(m.w2, dw2, m.vw2)
	b2 := []float64{m.b2}
	vb2 := []float64{m.vb2}
	rmsprop(b2, []float64{db2}, vb2)
	m.b2, m.vb2 = b2[0], vb2[0]

	m.trained = true
	return stats, nil
}

// PredictProba implements Classifier.
func (m *MLP) PredictProba(x mat.Matrix) ([]float64, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	if err := checkBatch(x, nil, m.in); err != nil {
		return nil, err
	}
	_, _, p := m.forward(x)
	return p, nil
}

func rmsprop(w, g, v []float64) {
	for i := range w {
		v[i] = RMSpropRho*v[i] + (1-RMSpropRho)*g[i]*g[i]
		w[i] -= LearningRate * g[i] / (math.Sqrt(v[i]) + RMSpropEps)
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
