package wordvec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteText writes s in the text format: a "N D" header followed by one
// "word v1 ... vD" line per word. Floats use the shortest representation
// that round-trips.
func WriteText(w io.Writer, s *Space) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", s.Len(), s.dim); err != nil {
		return err
	}

	buf := make([]byte, 0, 64)
	for i, word := range s.vocab.words {
		if word == "" || strings.ContainsAny(word, " \t\r\n") {
			return fmt.Errorf("wordvec: word %q cannot be written as text", word)
		}
		buf = append(buf[:0], word...)
		for _, v := range s.vectors.RawRowView(i) {
			buf = append(buf, ' ')
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadText parses the text format. The header line is optional; when present
// its counts are checked against the body.
//
// Vectors are passed through New, so optFns apply as for any new space.
// Re-centering already centered vectors leaves them unchanged up to rounding.
func ReadText(r io.Reader, optFns ...func(o *Options)) (*Space, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		words      []string
		vectors    [][]float64
		wantN      = -1
		wantD      = -1
		lineNumber int
	)

	for sc.Scan() {
		lineNumber++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		if lineNumber == 1 && len(fields) == 2 {
			n, errN := strconv.Atoi(fields[0])
			d, errD := strconv.Atoi(fields[1])
			if errN == nil && errD == nil {
				if n < 0 || d <= 0 {
					return nil, fmt.Errorf("wordvec: invalid header %q", sc.Text())
				}
				wantN, wantD = n, d
				continue
			}
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("wordvec: line %d: missing vector", lineNumber)
		}
		vec := make([]float64, len(fields)-1)
		for j, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("wordvec: line %d: %w", lineNumber, err)
			}
			vec[j] = v
		}
		if wantD < 0 {
			wantD = len(vec)
		}
		if len(vec) != wantD {
			return nil, fmt.Errorf("wordvec: line %d: %w", lineNumber, &DimensionMismatchError{Expected: wantD, Actual: len(vec)})
		}
		words = append(words, fields[0])
		vectors = append(vectors, vec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, ErrEmptyInput
	}
	if wantN >= 0 && wantN != len(words) {
		return nil, fmt.Errorf("wordvec: header declares %d words, found %d", wantN, len(words))
	}
	return New(words, vectors, optFns...)
}

// LoadFile reads a space from a text file.
func LoadFile(path string, optFns ...func(o *Options)) (*Space, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadText(f, optFns...)
}

// SaveFile writes s to path atomically.
func SaveFile(path string, s *Space) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wordvec-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteText(tmp, s); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
