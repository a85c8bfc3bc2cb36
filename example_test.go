package semshift_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/semshift"
	"github.com/hupe1980/semshift/align"
	"github.com/hupe1980/semshift/wordvec"
)

func noCentering(o *wordvec.Options) {
	o.Center = false
}

// Example_topShifted aligns two tiny spaces related by a 90° rotation and
// reports the one word that moved.
func Example_topShifted() {
	ctx := context.Background()
	words := []string{"apple", "bank", "cell", "dog", "egg"}

	src, err := wordvec.New(words, [][]float64{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1},
	}, noCentering)
	if err != nil {
		log.Fatal(err)
	}
	dst, err := wordvec.New(words, [][]float64{
		{0, 1, 0}, {-1, 0, 0}, {5, 5, -4}, {-1, 1, 0}, {-1, 0, 1},
	}, noCentering)
	if err != nil {
		log.Fatal(err)
	}

	eng := semshift.New(semshift.WithSeed(42))
	a, err := eng.Align(ctx, src, dst, align.Global{Exclude: []string{"cell"}})
	if err != nil {
		log.Fatal(err)
	}

	top, err := a.TopShiftedWords(ctx, 1)
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range top {
		fmt.Printf("%s %.3f\n", w.Word, w.Shift)
	}
	// Output: cell 1.492
}
