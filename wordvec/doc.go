// Package wordvec provides the word vector space used throughout semshift.
//
// A Space pairs an ordered, deduplicated vocabulary with an N×D matrix whose
// row i holds the vector of word i. Spaces are immutable: every operation that
// changes vocabulary or vectors (Intersect, Union, Rotate, Subset) returns a
// new Space.
//
// # Construction
//
//	s, err := wordvec.New(words, vectors)                       // centered (default)
//	s, err := wordvec.New(words, vectors, func(o *wordvec.Options) {
//	    o.Center = false
//	    o.Normalize = true
//	})
//
// # Set Algebra
//
//	common, err := wordvec.Intersect(a, b)  // same words, a's order
//	merged, err := wordvec.Union(a, b)      // mean of shared vectors
//
// # Text Format
//
// Spaces round-trip through a line-oriented text form: a header line "N D"
// followed by one "word v1 v2 ... vD" line per word.
package wordvec
