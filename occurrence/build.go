package occurrence

import (
	"bufio"
	"context"
	"errors"
	"io"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Options configures Build.
type Options struct {
	// Limit caps the recorded lines per word.
	Limit int
	// Tokenize splits a line into words.
	Tokenize Tokenizer
	// Workers bounds concurrent tokenization. Values < 1 use GOMAXPROCS.
	Workers int
	// BatchSize is the number of lines tokenized per batch.
	BatchSize int
}

// DefaultOptions are used by Build unless overridden.
var DefaultOptions = Options{
	Limit:     DefaultLimit,
	Tokenize:  Fields,
	BatchSize: 4096,
}

// Build indexes every line of r, numbering lines from zero. Lines are
// tokenized concurrently and merged in order, so the result equals a
// sequential scan.
func Build(ctx context.Context, r io.Reader, optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tokenize == nil {
		opts.Tokenize = Fields
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultOptions.BatchSize
	}

	x, err := New(opts.Limit)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(r)
	next := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := readBatch(br, opts.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return x, nil
		}

		tokens := make([][]string, len(batch))
		chunk := max((len(batch)+opts.Workers-1)/opts.Workers, 1)

		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for start := 0; start < len(batch); start += chunk {
			end := min(start+chunk, len(batch))
			g.Go(func() error {
				for i := start; i < end; i++ {
					tokens[i] = opts.Tokenize(batch[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, toks := range tokens {
			x.Add(next+i, toks)
		}
		next += len(batch)
	}
}

func readBatch(br *bufio.Reader, size int) ([]string, error) {
	batch := make([]string, 0, size)
	for len(batch) < size {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			batch = append(batch, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return batch, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return batch, nil
}
