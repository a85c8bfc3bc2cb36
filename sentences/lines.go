package sentences

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrLineNotFound is returned when a requested line number is beyond the end
// of the corpus.
var ErrLineNotFound = errors.New("line not found")

// LineSource returns corpus lines by zero-based line number.
type LineSource interface {
	Lines(ctx context.Context, idx []int) (map[int]string, error)
}

// MemoryLines is a LineSource over an in-memory corpus.
type MemoryLines []string

// Lines implements LineSource.
func (m MemoryLines) Lines(_ context.Context, idx []int) (map[int]string, error) {
	out := make(map[int]string, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(m) {
			return nil, fmt.Errorf("%w: %d", ErrLineNotFound, i)
		}
		out[i] = m[i]
	}
	return out, nil
}

// FileLinesOptions configures FileLines.
type FileLinesOptions struct {
	// CacheSize is the number of lines kept in memory between requests.
	CacheSize int
}

// DefaultFileLinesOptions holds the defaults for NewFileLines.
var DefaultFileLinesOptions = FileLinesOptions{
	CacheSize: 4096,
}

// FileLines reads lines from a text file. Each request scans the file at
// most once; recently served lines are cached. It is safe for concurrent use.
type FileLines struct {
	path  string
	cache *lru.Cache[int, string]
}

// NewFileLines returns a LineSource for the file at path.
func NewFileLines(path string, optFns ...func(o *FileLinesOptions)) (*FileLines, error) {
	opts := DefaultFileLinesOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = DefaultFileLinesOptions.CacheSize
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	cache, err := lru.New[int, string](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &FileLines{path: path, cache: cache}, nil
}

// Lines implements LineSource.
func (f *FileLines) Lines(ctx context.Context, idx []int) (map[int]string, error) {
	out := make(map[int]string, len(idx))
	var missing []int
	for _, i := range idx {
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrLineNotFound, i)
		}
		if s, ok := f.cache.Get(i); ok {
			out[i] = s
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	slices.Sort(missing)
	missing = slices.Compact(missing)

	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	next := 0
	for line := 0; next < len(missing); line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) && s == "" {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if line == missing[next] {
			s = strings.TrimRight(s, "\r\n")
			out[line] = s
			f.cache.Add(line, s)
			next++
		}
		if err != nil {
			break
		}
	}
	if next < len(missing) {
		return nil, fmt.Errorf("%w: %d", ErrLineNotFound, missing[next])
	}
	return out, nil
}
