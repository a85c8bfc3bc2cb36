// Package mmap maps files read-only into memory.
//
//	m, err := mmap.Open("artifacts/run-1/dists.mat")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// On Unix the mapping uses mmap(2) and madvise(2); on Windows it uses
// CreateFileMapping/MapViewOfFile and Advise is a no-op.
//
// A Mapping may be read concurrently. Close is idempotent; Bytes must not be
// used after Close returns.
package mmap
