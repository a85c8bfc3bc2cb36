// Package codec encodes the structured blobs of an artifact bundle: the
// common vocabulary and the shift vector.
//
// A bundle manifest records the codec its blobs were written with, so
// stores configured with different codecs can still read each other's
// bundles.
package codec

// Codec encodes and decodes values. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name is recorded in manifests and resolved by ByName.
	Name() string
}

// Default is used when no codec is configured.
var Default Codec = JSON{}

var builtin = []Codec{JSON{}, YAML{}}

// ByName returns the built-in codec with the given name.
func ByName(name string) (Codec, bool) {
	for _, c := range builtin {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the built-in codec names.
func Names() []string {
	out := make([]string, len(builtin))
	for i, c := range builtin {
		out[i] = c.Name()
	}
	return out
}
