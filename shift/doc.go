// Package shift measures per-word semantic drift between two aligned spaces
// and answers neighbour queries across them.
//
// Inputs are the row-matched matrices of an alignment: v1 (rotated source)
// and v2 (target), both |common|×D, with row i belonging to common[i].
package shift
