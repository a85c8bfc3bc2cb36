// Package align fits orthogonal rotations that map one word vector space onto
// another.
//
// Three strategies are available, each selected by a Config value:
//
//   - Global fits orthogonal Procrustes once on a set of anchor words.
//   - NoiseAware alternates Procrustes with an EM estimate of which word
//     pairs are clean and which are noise.
//   - S4 discovers stable landmark words by training a classifier on
//     synthetically perturbed pairs and refits Procrustes on them.
//
// All strategies fit Q on a subset of rows and apply it to the whole source
// space. Run expects both spaces to share the same vocabulary in the same
// order, as produced by wordvec.Intersect.
//
// # Configuration
//
// Configs travel as a JSON envelope:
//
//	{"alignment_type": "s4", "args": {"cls_model": "nn", "iters": 50}}
//
// ParseConfig decodes it, filling unset arguments with their defaults.
package align
