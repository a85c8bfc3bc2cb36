package occurrence

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// DefaultLimit is the per-word posting cap used when none is configured.
const DefaultLimit = 10000

var (
	// ErrInvalidFormat is returned when decoding a malformed index.
	ErrInvalidFormat = errors.New("invalid occurrence index format")

	// ErrInvalidLimit is returned for a non-positive posting cap.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Tokenizer splits a corpus line into words.
type Tokenizer func(line string) []string

// Fields is the default Tokenizer: whitespace separated fields.
func Fields(line string) []string { return strings.Fields(line) }

// Index maps words to capped line-number sets. It is not safe for concurrent
// mutation; a fully built Index may be read concurrently.
type Index struct {
	limit    int
	lines    int
	postings map[string]*roaring.Bitmap
}

// New returns an empty index keeping at most limit lines per word.
func New(limit int) (*Index, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return &Index{limit: limit, postings: make(map[string]*roaring.Bitmap)}, nil
}

// Add records that tokens occur on line. Lines must be added in ascending
// order for the cap to keep the earliest lines.
func (x *Index) Add(line int, tokens []string) {
	for _, tok := range tokens {
		bm, ok := x.postings[tok]
		if !ok {
			bm = roaring.New()
			x.postings[tok] = bm
		}
		if bm.GetCardinality() < uint64(x.limit) {
			bm.Add(uint32(line))
		}
	}
	x.lines = max(x.lines, line+1)
}

// Limit returns the per-word cap.
func (x *Index) Limit() int { return x.limit }

// Len returns the number of distinct words.
func (x *Index) Len() int { return len(x.postings) }

// NumLines returns one past the highest line number seen.
func (x *Index) NumLines() int { return x.lines }

// Contains reports whether word occurs in the corpus.
func (x *Index) Contains(word string) bool {
	_, ok := x.postings[word]
	return ok
}

// Count returns the number of recorded lines for word.
func (x *Index) Count(word string) int {
	if bm, ok := x.postings[word]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

// Lines returns the recorded line numbers of word in ascending order, or nil
// when the word does not occur.
func (x *Index) Lines(word string) []int {
	bm, ok := x.postings[word]
	if !ok {
		return nil
	}
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Bitmap returns a copy of the posting bitmap of word.
func (x *Index) Bitmap(word string) (*roaring.Bitmap, bool) {
	bm, ok := x.postings[word]
	if !ok {
		return nil, false
	}
	return bm.Clone(), true
}

// CoOccurring returns the lines that contain every given word.
func (x *Index) CoOccurring(words ...string) []int {
	if len(words) == 0 {
		return nil
	}
	bms := make([]*roaring.Bitmap, 0, len(words))
	for _, w := range words {
		bm, ok := x.postings[w]
		if !ok {
			return nil
		}
		bms = append(bms, bm)
	}
	and := roaring.FastAnd(bms...)
	return toInts(and.ToArray())
}

// Words returns all indexed words in lexical order.
func (x *Index) Words() []string {
	return slices.Sorted(maps.Keys(x.postings))
}

func toInts(a []uint32) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
