package testutil

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Rand returns an independent generator seeded from r. Hand it to code under
// test that takes an explicit *rand.Rand.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rand.Uint64(), r.rand.Uint64()))
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
// Uses a single backing array for efficiency.
func (r *RNG) GaussianVectors(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num, dimensions int) [][]float64 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, vec := range vectors {
		norm := vek.Norm(vec)
		if norm == 0 {
			norm = 1
		}
		vek.MulNumber_Inplace(vec, 1/norm)
	}
	return vectors
}

// Orthogonal returns a uniformly distributed random d×d orthogonal matrix.
// It takes Q from the QR factorization of a Gaussian matrix and fixes the
// column signs so that diag(R) is positive.
func (r *RNG) Orthogonal(d int) *mat.Dense {
	rows := r.GaussianVectors(d, d)
	g := mat.NewDense(d, d, nil)
	for i, row := range rows {
		g.SetRow(i, row)
	}

	var qr mat.QR
	qr.Factorize(g)

	var q, rr mat.Dense
	qr.QTo(&q)
	qr.RTo(&rr)

	for j := range d {
		if rr.At(j, j) < 0 {
			for i := range d {
				q.Set(i, j, -q.At(i, j))
			}
		}
	}
	return &q
}

// Words returns n distinct synthetic words.
func Words(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return words
}

// Pair is a synthetic source/target pair of embedding matrices.
type Pair struct {
	Words []string
	X     [][]float64
	Y     [][]float64
	// R is the rotation taking clean rows of X onto Y.
	R *mat.Dense
	// Drifted lists the rows of Y replaced by unrelated vectors.
	Drifted []int
}

// DriftedPair generates n words in d dimensions with Y = X·R for all but
// drifted rows, which are replaced by Gaussian vectors scaled by spread and
// shifted away from the clean data. The drifted rows are the last ones.
func (r *RNG) DriftedPair(n, d, drifted int, spread float64) Pair {
	x := r.GaussianVectors(n, d)
	rot := r.Orthogonal(d)

	y := make([][]float64, n)
	for i, row := range x {
		out := make([]float64, d)
		mat.NewVecDense(d, out).MulVec(rot.T(), mat.NewVecDense(d, row))
		y[i] = out
	}

	idx := make([]int, 0, drifted)
	noise := r.GaussianVectors(drifted, d)
	for k := range drifted {
		i := n - drifted + k
		vek.MulNumber_Inplace(noise[k], spread)
		for j := range noise[k] {
			noise[k][j] += spread
		}
		y[i] = noise[k]
		idx = append(idx, i)
	}

	return Pair{
		Words:   Words(n),
		X:       x,
		Y:       y,
		R:       rot,
		Drifted: idx,
	}
}

// FrobeniusDistance returns ‖a − b‖_F.
func FrobeniusDistance(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return mat.Norm(&diff, 2)
}

// OrthogonalityError returns ‖QᵀQ − I‖_F.
func OrthogonalityError(q mat.Matrix) float64 {
	_, c := q.Dims()
	var qtq mat.Dense
	qtq.Mul(q.T(), q)
	for i := range c {
		qtq.Set(i, i, qtq.At(i, i)-1)
	}
	return mat.Norm(&qtq, 2)
}
