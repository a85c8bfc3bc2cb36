package shift

import "errors"

var (
	// ErrInvalidK is returned for a negative result count.
	ErrInvalidK = errors.New("k must be non-negative")

	// ErrLengthMismatch is returned when paired inputs differ in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrIndexOutOfRange is returned for a row index outside the vocabulary.
	ErrIndexOutOfRange = errors.New("index out of range")
)
