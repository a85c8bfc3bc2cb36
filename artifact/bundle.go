package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Blob names within a bundle.
const (
	ManifestBlob = "manifest.json"
	CommonBlob   = "common.json"
	ShiftBlob    = "shift.json"
)

// CurrentBlob names the pointer to the committed bundle.
const CurrentBlob = "CURRENT"

// Matrix names one of the matrices of a bundle.
type Matrix string

const (
	MatrixV1    Matrix = "v1"
	MatrixV2    Matrix = "v2"
	MatrixQ     Matrix = "q"
	MatrixDists Matrix = "dists"
)

// Matrices lists every matrix of a bundle.
var Matrices = []Matrix{MatrixV1, MatrixV2, MatrixQ, MatrixDists}

func (m Matrix) blob() string {
	return string(m) + ".mat"
}

var (
	// ErrInvalidBundle is returned when bundle shapes disagree.
	ErrInvalidBundle = errors.New("invalid bundle")
	// ErrInvalidName is returned for names that cannot address a bundle.
	ErrInvalidName = errors.New("invalid bundle name")
	// ErrNoCurrent is returned when nothing has been committed.
	ErrNoCurrent = errors.New("no committed bundle")
)

// Bundle is a complete alignment result.
type Bundle struct {
	// Name addresses the bundle in the store. Save assigns a UUID when empty.
	Name string
	// Config is the alignment configuration envelope.
	Config json.RawMessage
	Common []string
	V1     *mat.Dense
	V2     *mat.Dense
	Q      *mat.Dense
	Shift  []float64
	Dists  *mat.Dense

	CreatedAt time.Time
}

// Validate checks that all parts describe the same vocabulary and dimension.
func (b *Bundle) Validate() error {
	if b.V1 == nil || b.V2 == nil || b.Q == nil || b.Dists == nil {
		return fmt.Errorf("%w: missing matrix", ErrInvalidBundle)
	}
	n := len(b.Common)
	r1, d1 := b.V1.Dims()
	r2, d2 := b.V2.Dims()
	qr, qc := b.Q.Dims()
	dr, dc := b.Dists.Dims()
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty vocabulary", ErrInvalidBundle)
	case r1 != n || r2 != n:
		return fmt.Errorf("%w: %d words but %d and %d vector rows", ErrInvalidBundle, n, r1, r2)
	case d1 != d2 || qr != d1 || qc != d1:
		return fmt.Errorf("%w: dimensions %d, %d and rotation %dx%d", ErrInvalidBundle, d1, d2, qr, qc)
	case len(b.Shift) != n:
		return fmt.Errorf("%w: %d words but %d shifts", ErrInvalidBundle, n, len(b.Shift))
	case dr != n || dc != n:
		return fmt.Errorf("%w: distances are %dx%d for %d words", ErrInvalidBundle, dr, dc, n)
	}
	return nil
}

// Manifest describes a stored bundle.
type Manifest struct {
	FormatVersion int             `json:"format_version"`
	Name          string          `json:"name"`
	CreatedAt     time.Time       `json:"created_at"`
	Codec         string          `json:"codec"`
	Compression   string          `json:"compression"`
	Words         int             `json:"words"`
	Dim           int             `json:"dim"`
	Config        json.RawMessage `json:"config,omitempty"`
	Blobs         []string        `json:"blobs"`
}

// FormatVersion is the current manifest format.
const FormatVersion = 1

func validName(name string) error {
	if name == "" || name == CurrentBlob || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
