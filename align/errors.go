package align

import "errors"

var (
	// ErrConfig is returned for an unknown alignment type or an invalid
	// argument combination.
	ErrConfig = errors.New("invalid alignment config")

	// ErrVocabularyMismatch is returned when source and target do not list
	// the same words in the same order.
	ErrVocabularyMismatch = errors.New("source and target vocabularies differ")

	// ErrSVD is returned when the singular value decomposition fails.
	ErrSVD = errors.New("svd did not converge")
)
