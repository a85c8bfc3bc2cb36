// Package testutil provides testing utilities for semshift.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, random orthogonal matrices and
// synthetic pairs of embedding spaces with a known rotation and a known
// set of drifted words.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	x := rng.GaussianVectors(100, 16)
//	r := rng.Orthogonal(16)
//
// # Drifted Pairs
//
//	pair := rng.DriftedPair(200, 16, 40, 3.0)
//	// pair.Y[i] == pair.X[i]·pair.R, except for i in pair.Drifted
package testutil
