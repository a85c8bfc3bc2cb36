package wordvec

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a set operation receives no spaces, when
	// an intersection is empty, or when a space would hold zero words.
	ErrEmptyInput = errors.New("empty input")

	// ErrDuplicateWord is returned when a vocabulary contains a word twice.
	ErrDuplicateWord = errors.New("duplicate word")
)

// WordNotFoundError indicates a word absent from a vocabulary.
type WordNotFoundError struct {
	Word string
}

func (e *WordNotFoundError) Error() string {
	return fmt.Sprintf("word not found: %q", e.Word)
}

// DimensionMismatchError indicates vectors or spaces of differing dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
