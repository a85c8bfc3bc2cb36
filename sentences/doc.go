// Package sentences mines corpus lines that illustrate how a word's usage
// differs between two aligned corpora.
//
// Each side is a Corpus: an occurrence index, a LineSource for the raw text
// and the word vectors used to embed lines. A line embedding is the sum of
// its in-vocabulary token vectors. Source embeddings are rotated by the
// alignment's Q before they are compared with target embeddings by cosine
// similarity.
package sentences
