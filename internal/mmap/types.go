package mmap

import "errors"

// AccessPattern is passed to madvise(2) where supported.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits blobs decoded front to back, such as matrices.
	AccessSequential
	// AccessRandom suits blobs served in small ranges.
	AccessRandom
)

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: invalid file size")
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
