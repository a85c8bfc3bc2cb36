package classifier

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
)

// SVM parameters.
const (
	SVMC         = 1.0
	svmTolerance = 1e-3
	svmTau       = 1e-12
	svmMaxIter   = 10000
	plattMaxIter = 100
	plattMinStep = 1e-10
	plattSigma   = 1e-12
	plattEpsilon = 1e-5
)

// SVM is a C-support vector classifier with an RBF kernel. The kernel width
// is 1/(features·var(X)) of the training batch. Probabilities come from a
// sigmoid fitted to the decision values of the training batch (Platt
// scaling). Every Train call refits from scratch.
type SVM struct {
	in int

	gamma float64
	sv    [][]float64
	coef  []float64 // alpha_i·y_i
	rho   float64

	// Platt parameters; P(1|f) = 1/(1+exp(A·f+B)).
	a, b float64

	// constant is used when the batch holds a single class.
	constant *float64
}

// NewSVM returns an untrained SVM for inputs of the given width.
func NewSVM(inputDim int) *SVM {
	return &SVM{in: inputDim}
}

// Kind implements Classifier.
func (s *SVM) Kind() Kind { return KindSVM }

// Gamma returns the kernel width of the last fit.
func (s *SVM) Gamma() float64 { return s.gamma }

// Train implements Classifier.
func (s *SVM) Train(x *mat.Dense, y []float64) (Stats, error) {
	if err := checkBatch(x, y, s.in); err != nil {
		return Stats{}, err
	}
	n, _ := x.Dims()

	rows := make([][]float64, n)
	labels := make([]float64, n)
	var pos int
	for i := range n {
		rows[i] = mat.Row(nil, i, x)
		if y[i] > 0.5 {
			labels[i] = 1
			pos++
		} else {
			labels[i] = -1
		}
	}

	s.sv, s.coef, s.constant = nil, nil, nil
	if pos == 0 || pos == n {
		c := float64(pos) / float64(n)
		s.constant = &c
		p := make([]float64, n)
		for i := range p {
			p[i] = c
		}
		return Stats{Loss: LogLoss(y, p), Accuracy: Accuracy(y, p)}, nil
	}

	s.gamma = scaleGamma(x)
	k := s.kernelMatrix(rows)
	alpha, rho := smo(k, labels)

	for i, a := range alpha {
		if a > 0 {
			s.sv = append(s.sv, rows[i])
			s.coef = append(s.coef, a*labels[i])
		}
	}
	s.rho = rho

	dec := make([]float64, n)
	for i := range n {
		dec[i] = s.decision(rows[i])
	}
	s.a, s.b = platt(dec, labels)

	p := make([]float64, n)
	for i, f := range dec {
		p[i] = s.prob(f)
	}
	return Stats{Loss: LogLoss(y, p), Accuracy: Accuracy(y, p)}, nil
}

// PredictProba implements Classifier.
func (s *SVM) PredictProba(x mat.Matrix) ([]float64, error) {
	if s.constant == nil && s.sv == nil {
		return nil, ErrNotTrained
	}
	if err := checkBatch(x, nil, s.in); err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	out := make([]float64, n)
	row := make([]float64, s.in)
	for i := range n {
		if s.constant != nil {
			out[i] = *s.constant
			continue
		}
		mat.Row(row, i, x)
		out[i] = s.prob(s.decision(row))
	}
	return out, nil
}

func (s *SVM) kernel(a, b []float64) float64 {
	d := vek.Distance(a, b)
	return math.Exp(-s.gamma * d * d)
}

func (s *SVM) kernelMatrix(rows [][]float64) [][]float64 {
	n := len(rows)
	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, n)
	}
	for i := range n {
		k[i][i] = 1
		for j := i + 1; j < n; j++ {
			v := s.kernel(rows[i], rows[j])
			k[i][j], k[j][i] = v, v
		}
	}
	return k
}

func (s *SVM) decision(x []float64) float64 {
	var f float64
	for i, v := range s.sv {
		f += s.coef[i] * s.kernel(v, x)
	}
	return f - s.rho
}

func (s *SVM) prob(f float64) float64 {
	fApB := f*s.a + s.b
	if fApB >= 0 {
		e := math.Exp(-fApB)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(fApB))
}

// scaleGamma returns 1/(features·var(X)) with the variance taken over every
// element, or 1 for constant input.
func scaleGamma(x *mat.Dense) float64 {
	r, c := x.Dims()
	var sum, sq float64
	for i := range r {
		for _, v := range x.RawRowView(i) {
			sum += v
			sq += v * v
		}
	}
	n := float64(r * c)
	mean := sum / n
	variance := sq/n - mean*mean
	if variance <= 0 {
		return 1
	}
	return 1 / (float64(c) * variance)
}

// smo solves the C-SVC dual with sequential minimal optimization using the
// maximal violating pair. It returns the multipliers and the bias rho.
func smo(k [][]float64, y []float64) ([]float64, float64) {
	n := len(y)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	q := func(i, j int) float64 { return y[i] * y[j] * k[i][j] }

	for iter := 0; iter < svmMaxIter; iter++ {
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := range n {
			v := -y[t] * grad[t]
			if (y[t] > 0 && alpha[t] < SVMC) || (y[t] < 0 && alpha[t] > 0) {
				if v > gmax {
					gmax, i = v, t
				}
			}
			if (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < SVMC) {
				if v < gmin {
					gmin, j = v, t
				}
			}
		}
		if i < 0 || j < 0 || gmax-gmin < svmTolerance {
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := q(i, i) + q(j, j) + 2*q(i, j)
			if quad <= 0 {
				quad = svmTau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j], alpha[i] = 0, diff
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, -diff
			}
			if diff > 0 {
				if alpha[i] > SVMC {
					alpha[i], alpha[j] = SVMC, SVMC-diff
				}
			} else if alpha[j] > SVMC {
				alpha[j], alpha[i] = SVMC, SVMC+diff
			}
		} else {
			quad := q(i, i) + q(j, j) - 2*q(i, j)
			if quad <= 0 {
				quad = svmTau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > SVMC {
				if alpha[i] > SVMC {
					alpha[i], alpha[j] = SVMC, sum-SVMC
				}
			} else if alpha[j] < 0 {
				alpha[j], alpha[i] = 0, sum
			}
			if sum > SVMC {
				if alpha[j] > SVMC {
					alpha[j], alpha[i] = SVMC, sum-SVMC
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := range n {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
	}

	// Bias from free vectors, or the midpoint of the feasible interval.
	var (
		free    int
		sumFree float64
		ub      = math.Inf(1)
		lb      = math.Inf(-1)
	)
	for t := range n {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= SVMC:
			if y[t] < 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		default:
			free++
			sumFree += yg
		}
	}
	if free > 0 {
		return alpha, sumFree / float64(free)
	}
	return alpha, (ub + lb) / 2
}

// platt fits P(1|f) = 1/(1+exp(A·f+B)) by Newton's method with backtracking
// (Lin, Lin and Weng).
func platt(dec, y []float64) (float64, float64) {
	var prior1, prior0 float64
	for _, v := range y {
		if v > 0 {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	t := make([]float64, len(y))
	for i, v := range y {
		if v > 0 {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	objective := func(a, b float64) float64 {
		var f float64
		for i, d := range dec {
			fApB := d*a + b
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}

	a, b := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := objective(a, b)

	for range plattMaxIter {
		h11, h22 := plattSigma, plattSigma
		var h21, g1, g2 float64
		for i, d := range dec {
			fApB := d*a + b
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p, q = e/(1+e), 1/(1+e)
			} else {
				e := math.Exp(fApB)
				p, q = 1/(1+e), e/(1+e)
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}
		if math.Abs(g1) < plattEpsilon && math.Abs(g2) < plattEpsilon {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= plattMinStep {
			na, nb := a+step*dA, b+step*dB
			if nf := objective(na, nb); nf < fval+1e-4*step*gd {
				a, b, fval = na, nb, nf
				break
			}
			step /= 2
		}
		if step < plattMinStep {
			break
		}
	}
	return a, b
}
