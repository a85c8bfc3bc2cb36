// Package occurrence maps corpus words to the set of line numbers they occur
// on. Postings are roaring bitmaps capped at a per-word limit; the first
// lines of the corpus win.
//
// Build scans a line-oriented corpus once:
//
//	f, _ := os.Open("corpus.txt")
//	idx, err := occurrence.Build(ctx, f, func(o *occurrence.Options) {
//		o.Limit = 5000
//	})
//
// An Index is persisted with WriteTo and restored with ReadFrom.
package occurrence
