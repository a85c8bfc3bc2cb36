package align

import (
	"context"
	"math"

	"github.com/hupe1980/semshift/wordvec"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// minVariance keeps the Gaussian log-densities finite when a component
// collapses onto its mean.
const minVariance = 1e-12

// NoiseAwareReport describes a NoiseAware fit.
type NoiseAwareReport struct {
	// Alpha is the final inlier prior, in [0, 1].
	Alpha float64
	// Iterations is the number of EM rounds run.
	Iterations int
	// Clean and Noisy partition the rows at responsibility 0.5.
	Clean []int
	Noisy []int
}

func (*NoiseAwareReport) Kind() Kind { return KindNoiseAware }

type emState struct {
	q      *mat.Dense
	alpha  float64
	sigma  float64
	muy    []float64
	sigmay float64
}

func (c NoiseAware) fit(ctx context.Context, src, dst *wordvec.Space, env Env) (*mat.Dense, *NoiseAwareReport, error) {
	x, y := src.Vectors(), dst.Vectors()
	n, d := x.Dims()

	q, err := Procrustes(x, y)
	if err != nil {
		return nil, nil, err
	}

	ydata := mat.DenseCopyOf(y)
	_, sigmay := stat.PopMeanVariance(ydata.RawMatrix().Data, nil)
	muy := make([]float64, d)
	col := make([]float64, n)
	for j := range d {
		mat.Col(col, j, ydata)
		muy[j] = stat.Mean(col, nil)
	}

	st := emState{
		q:      q,
		alpha:  0.5,
		sigma:  sumSquaredResiduals(x, ydata, q, nil) / float64(n*d),
		muy:    muy,
		sigmay: sigmay,
	}

	var (
		w    []float64
		prev = -1.0
		iter int
	)
	for iter < c.MaxIters && math.Abs(st.alpha-prev) > c.Threshold {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		iter++
		prev = st.alpha

		w = responsibilities(x, ydata, st)

		var ok bool
		if c.Soft {
			ok, err = st.softStep(x, ydata, w)
		} else {
			ok, err = st.hardStep(x, ydata, w)
		}
		if err != nil {
			return nil, nil, err
		}

		env.Logger.Debug("noise-aware iteration",
			"iter", iter, "alpha", st.alpha, "sigma", st.sigma, "sigmay", st.sigmay)

		if !ok {
			env.Logger.Debug("noise-aware stopped on a degenerate partition", "iter", iter)
			break
		}
	}

	report := &NoiseAwareReport{Alpha: st.alpha, Iterations: iter}
	for i, wi := range w {
		if wi >= 0.5 {
			report.Clean = append(report.Clean, i)
		} else {
			report.Noisy = append(report.Noisy, i)
		}
	}
	return st.q, report, nil
}

// logGaussian is the log-density of an isotropic Gaussian with variance s.
func logGaussian(dist2 float64, d int, s float64) float64 {
	s = max(s, minVariance)
	return -float64(d)/2*math.Log(2*math.Pi*s) - 0.5*dist2/s
}

// responsibilities is the E-step: the posterior probability that each pair
// comes from the inlier component. NaN becomes 0.
func responsibilities(x mat.Matrix, y *mat.Dense, st emState) []float64 {
	n, d := y.Dims()

	var xq mat.Dense
	xq.Mul(x, st.q)

	nom := make([]float64, n)
	sup := make([]float64, n)
	logA, logB := math.Log(st.alpha), math.Log(1-st.alpha)
	for i := range n {
		yi := y.RawRowView(i)
		nom[i] = logA + logGaussian(sqDist(yi, xq.RawRowView(i)), d, st.sigma)
		sup[i] = logB + logGaussian(sqDist(yi, st.muy), d, st.sigmay)
	}

	m := floats.Max(nom)
	w := make([]float64, n)
	for i := range n {
		a := math.Exp(nom[i] - m)
		b := math.Exp(sup[i] - m)
		w[i] = a / (a + b)
		if math.IsNaN(w[i]) {
			w[i] = 0
		}
	}
	return w
}

// softStep is the weighted M-step. It reports false when either component
// has no mass left.
func (st *emState) softStep(x mat.Matrix, y *mat.Dense, w []float64) (bool, error) {
	n, d := y.Dims()
	sumW := floats.Sum(w)
	st.alpha = clamp01(sumW / float64(n))
	if sumW <= minVariance {
		return false, nil
	}

	q, err := WeightedProcrustes(x, y, w)
	if err != nil {
		return false, err
	}
	st.q = q
	st.sigma = sumSquaredResiduals(x, y, q, w) / (sumW * float64(d))

	noisy := float64(n) - sumW
	if noisy <= minVariance {
		return false, nil
	}
	muy := make([]float64, d)
	for i := range n {
		floats.AddScaled(muy, 1-w[i], y.RawRowView(i))
	}
	floats.Scale(1/noisy, muy)
	st.muy = muy

	var spread float64
	for i := range n {
		spread += (1 - w[i]) * sqDist(muy, y.RawRowView(i))
	}
	st.sigmay = spread / (noisy * float64(d))
	return true, nil
}

// hardStep fits on the pairs with responsibility at least 0.5. It reports
// false when either side of the split is empty.
func (st *emState) hardStep(x mat.Matrix, y *mat.Dense, w []float64) (bool, error) {
	n, d := y.Dims()
	var clean, noisy []int
	for i, wi := range w {
		if wi >= 0.5 {
			clean = append(clean, i)
		} else {
			noisy = append(noisy, i)
		}
	}
	st.alpha = float64(len(clean)) / float64(n)
	if len(clean) == 0 || len(noisy) == 0 {
		return false, nil
	}

	q, err := fitRows(x, y, clean)
	if err != nil {
		return false, err
	}
	st.q = q

	var xq mat.Dense
	xq.Mul(x, q)
	var resid float64
	for _, i := range clean {
		resid += sqDist(xq.RawRowView(i), y.RawRowView(i))
	}
	st.sigma = resid / float64(len(clean)*d)

	muy := make([]float64, d)
	for _, i := range noisy {
		floats.Add(muy, y.RawRowView(i))
	}
	floats.Scale(1/float64(len(noisy)), muy)
	st.muy = muy

	var spread float64
	for _, i := range noisy {
		spread += sqDist(muy, y.RawRowView(i))
	}
	st.sigmay = spread / float64(len(noisy)*d)
	return true, nil
}

// sumSquaredResiduals returns Σ w_i‖x_i·Q − y_i‖², with unit weights when w is nil.
func sumSquaredResiduals(x mat.Matrix, y *mat.Dense, q mat.Matrix, w []float64) float64 {
	var xq mat.Dense
	xq.Mul(x, q)
	n, _ := y.Dims()
	var sum float64
	for i := range n {
		r := sqDist(xq.RawRowView(i), y.RawRowView(i))
		if w != nil {
			r *= w[i]
		}
		sum += r
	}
	return sum
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
