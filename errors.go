package semshift

import (
	"errors"
	"fmt"

	"github.com/hupe1980/semshift/align"
	"github.com/hupe1980/semshift/occurrence"
	"github.com/hupe1980/semshift/sentences"
	"github.com/hupe1980/semshift/shift"
	"github.com/hupe1980/semshift/wordvec"
)

var (
	// ErrConfig is returned for an unknown alignment type or an invalid
	// argument combination.
	ErrConfig = errors.New("invalid config")

	// ErrEmptyInput is returned for zero-length inputs to set operations.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidRequest is returned for requests that are well formed but
	// cannot be served, such as aligning a space with itself.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrType is returned for parameters of the wrong type.
	ErrType = errors.New("type error")

	// ErrValue is returned for parameters of the right type but an invalid
	// value.
	ErrValue = errors.New("value error")

	// ErrInvalidK is returned when k is negative.
	ErrInvalidK = fmt.Errorf("%w: k must be non-negative", ErrValue)
)

// ErrDimensionMismatch indicates spaces or vectors of differing dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrWordNotFound indicates a query word absent from the common vocabulary.
type ErrWordNotFound struct {
	Word  string
	cause error
}

func (e *ErrWordNotFound) Error() string {
	return fmt.Sprintf("word not found: %q", e.Word)
}

func (e *ErrWordNotFound) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *wordvec.DimensionMismatchError
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var wnf *wordvec.WordNotFoundError
	if errors.As(err, &wnf) {
		return &ErrWordNotFound{Word: wnf.Word, cause: err}
	}

	switch {
	case errors.Is(err, align.ErrConfig):
		return fmt.Errorf("%w: %w", ErrConfig, err)
	case errors.Is(err, wordvec.ErrEmptyInput):
		return fmt.Errorf("%w: %w", ErrEmptyInput, err)
	case errors.Is(err, align.ErrVocabularyMismatch),
		errors.Is(err, sentences.ErrNoCorpus):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	case errors.Is(err, shift.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	case errors.Is(err, shift.ErrLengthMismatch),
		errors.Is(err, shift.ErrIndexOutOfRange),
		errors.Is(err, occurrence.ErrInvalidLimit):
		return fmt.Errorf("%w: %w", ErrValue, err)
	}
	return err
}
