package occurrence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	MagicNumber = 0x4F434331 // "OCC1"
	Version     = 1

	// HeaderSize is magic, version, limit, lines and word count.
	HeaderSize = 4 + 4 + 4 + 4 + 4

	maxWordLen = 1 << 16
)

// WriteTo writes the index in its binary form: a fixed header followed by
// one (word, bitmap) record per word in lexical order. Words that ReadFrom
// would reject are refused before anything is written.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	words := x.Words()
	for _, word := range words {
		if len(word) == 0 || len(word) > maxWordLen {
			return 0, fmt.Errorf("%w: word length %d", ErrInvalidFormat, len(word))
		}
	}

	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	hdr := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:], MagicNumber)
	binary.LittleEndian.PutUint32(hdr[4:], Version)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(x.limit))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(x.lines))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(len(x.postings)))
	if _, err := cw.Write(hdr); err != nil {
		return cw.n, err
	}

	var lenBuf [4]byte
	for _, word := range words {
		data, err := x.postings[word].ToBytes()
		if err != nil {
			return cw.n, err
		}
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(word)))
		if _, err := cw.Write(lenBuf[:]); err != nil {
			return cw.n, err
		}
		if _, err := io.WriteString(cw, word); err != nil {
			return cw.n, err
		}
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
		if _, err := cw.Write(lenBuf[:]); err != nil {
			return cw.n, err
		}
		if _, err := cw.Write(data); err != nil {
			return cw.n, err
		}
	}
	return cw.n, bw.Flush()
}

// ReadFrom decodes an index written by WriteTo.
func ReadFrom(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidFormat, err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != MagicNumber {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	if v := binary.LittleEndian.Uint32(hdr[4:]); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}

	x, err := New(int(binary.LittleEndian.Uint32(hdr[8:])))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	x.lines = int(binary.LittleEndian.Uint32(hdr[12:]))
	count := binary.LittleEndian.Uint32(hdr[16:])

	var lenBuf [4]byte
	for i := range count {
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFormat, i, err)
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		if n == 0 || n > maxWordLen {
			return nil, fmt.Errorf("%w: record %d: word length %d", ErrInvalidFormat, i, n)
		}
		word := make([]byte, n)
		if _, err := io.ReadFull(br, word); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFormat, i, err)
		}

		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFormat, i, err)
		}
		data := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFormat, i, err)
		}
		bm := roaring.New()
		if err := bm.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidFormat, i, err)
		}
		x.postings[string(word)] = bm
	}
	return x, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
