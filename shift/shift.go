package shift

import (
	"context"
	"fmt"
	"runtime"

	"github.com/viterin/vek"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Compute returns the paired cosine distance of every row pair, computed as
// 0.5·‖x̂ − ŷ‖² on L2-normalized rows. Zero rows normalize to zero.
func Compute(v1, v2 mat.Matrix) ([]float64, error) {
	r1, c1 := v1.Dims()
	r2, c2 := v2.Dims()
	if r1 != r2 || c1 != c2 {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", ErrLengthMismatch, r1, c1, r2, c2)
	}

	out := make([]float64, r1)
	a := make([]float64, c1)
	b := make([]float64, c1)
	for i := range r1 {
		mat.Row(a, i, v1)
		mat.Row(b, i, v2)
		unit(a)
		unit(b)
		d := vek.Distance(a, b)
		out[i] = 0.5 * d * d
	}
	return out, nil
}

func unit(v []float64) {
	if n := vek.Norm(v); n > 0 {
		vek.MulNumber_Inplace(v, 1/n)
	}
}

// CrossDistances returns the |v1|×|v2| Euclidean distance matrix, row i
// being source word i and column j target word j. Rows are computed by up to
// workers goroutines (GOMAXPROCS when workers < 1); the result does not
// depend on the worker count.
func CrossDistances(ctx context.Context, v1, v2 mat.Matrix, workers int) (*mat.Dense, error) {
	r1, c1 := v1.Dims()
	r2, c2 := v2.Dims()
	if c1 != c2 {
		return nil, fmt.Errorf("%w: dimensions %d and %d", ErrLengthMismatch, c1, c2)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	a := mat.DenseCopyOf(v1)
	b := mat.DenseCopyOf(v2)
	out := mat.NewDense(r1, r2, nil)

	chunk := max((r1+workers-1)/workers, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < r1; start += chunk {
		end := min(start+chunk, r1)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				src := a.RawRowView(i)
				row := out.RawRowView(i)
				for j := range r2 {
					row[j] = vek.Distance(src, b.RawRowView(j))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
