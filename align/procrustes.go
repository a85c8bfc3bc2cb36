package align

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Procrustes returns the orthogonal Q minimizing ‖XQ − Y‖_F, computed as
// U·Vᵀ from the singular value decomposition XᵀY = U·S·Vᵀ.
func Procrustes(x, y mat.Matrix) (*mat.Dense, error) {
	rx, cx := x.Dims()
	ry, cy := y.Dims()
	if rx != ry || cx != cy {
		return nil, fmt.Errorf("%w: procrustes shapes %dx%d and %dx%d differ", ErrConfig, rx, cx, ry, cy)
	}
	if rx == 0 || cx == 0 {
		return nil, fmt.Errorf("%w: procrustes on empty matrices", ErrConfig)
	}

	m := mat.NewDense(cx, cy, nil)
	m.Mul(x.T(), y)

	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return nil, ErrSVD
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	q := mat.NewDense(cx, cx, nil)
	q.Mul(&u, v.T())
	return q, nil
}

// WeightedProcrustes scales row i of X and Y by w[i] before fitting.
func WeightedProcrustes(x, y mat.Matrix, w []float64) (*mat.Dense, error) {
	r, _ := x.Dims()
	if len(w) != r {
		return nil, fmt.Errorf("%w: %d weights for %d rows", ErrConfig, len(w), r)
	}
	return Procrustes(scaleRows(x, w), scaleRows(y, w))
}

func scaleRows(m mat.Matrix, w []float64) *mat.Dense {
	out := mat.DenseCopyOf(m)
	for i, s := range w {
		row := out.RawRowView(i)
		for j := range row {
			row[j] *= s
		}
	}
	return out
}

// selectRows stacks the given rows of m.
func selectRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for k, i := range idx {
		mat.Row(row, i, m)
		out.SetRow(k, row)
	}
	return out
}

// fitRows fits Procrustes on the given rows of x and y.
func fitRows(x, y mat.Matrix, idx []int) (*mat.Dense, error) {
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: empty anchor set", ErrConfig)
	}
	return Procrustes(selectRows(x, idx), selectRows(y, idx))
}
