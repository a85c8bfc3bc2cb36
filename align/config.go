package align

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/semshift/classifier"
	"github.com/hupe1980/semshift/codec"
)

// Kind is the alignment type tag.
type Kind string

const (
	KindGlobal     Kind = "global"
	KindNoiseAware Kind = "noise-aware"
	KindS4         Kind = "s4"
)

// Config is one of Global, NoiseAware or S4.
type Config interface {
	Kind() Kind
	Validate() error
	sealed()
}

// Global configures Procrustes on a fixed anchor set.
//
// At most one anchor mode should be set. If several are, the first in field
// order wins and Run logs a warning. With none set every word is an anchor.
// Exclude removes words from the anchor set in every mode.
type Global struct {
	Name string `json:"name,omitempty"`

	AnchorIndices []int    `json:"anchor_indices,omitempty"`
	AnchorTop     *int     `json:"anchor_top,omitempty"`
	AnchorBot     *int     `json:"anchor_bot,omitempty"`
	AnchorRandom  *int     `json:"anchor_random,omitempty"`
	AnchorWords   []string `json:"anchor_words,omitempty"`

	Exclude []string `json:"exclude,omitempty"`
}

func (Global) Kind() Kind { return KindGlobal }
func (Global) sealed()    {}

// Validate implements Config.
func (g Global) Validate() error {
	counts := []struct {
		name string
		v    *int
	}{
		{"anchor_top", g.AnchorTop},
		{"anchor_bot", g.AnchorBot},
		{"anchor_random", g.AnchorRandom},
	}
	for _, c := range counts {
		if c.v != nil && *c.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %d", ErrConfig, c.name, *c.v)
		}
	}
	return nil
}

func (g Global) modes() []string {
	var set []string
	if g.AnchorIndices != nil {
		set = append(set, "anchor_indices")
	}
	if g.AnchorTop != nil {
		set = append(set, "anchor_top")
	}
	if g.AnchorBot != nil {
		set = append(set, "anchor_bot")
	}
	if g.AnchorRandom != nil {
		set = append(set, "anchor_random")
	}
	if g.AnchorWords != nil {
		set = append(set, "anchor_words")
	}
	return set
}

// NoiseAware configures EM Procrustes.
type NoiseAware struct {
	Name string `json:"name,omitempty"`

	// Soft weights every pair by its inlier responsibility. Hard splits the
	// pairs at 0.5 and fits on the clean ones.
	Soft bool `json:"is_soft"`

	// Threshold stops the loop once the inlier prior moves by at most this much.
	Threshold float64 `json:"threshold"`

	MaxIters int `json:"max_iters"`
}

// DefaultNoiseAware returns soft EM with threshold 0.01 and 100 iterations.
func DefaultNoiseAware() NoiseAware {
	return NoiseAware{
		Name:      "unnamed",
		Soft:      true,
		Threshold: 0.01,
		MaxIters:  100,
	}
}

func (NoiseAware) Kind() Kind { return KindNoiseAware }
func (NoiseAware) sealed()    {}

// Validate implements Config.
func (c NoiseAware) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %g", ErrConfig, c.Threshold)
	}
	if c.MaxIters < 1 {
		return fmt.Errorf("%w: max_iters must be at least 1, got %d", ErrConfig, c.MaxIters)
	}
	return nil
}

// Classifier names accepted by S4. The svm_auto and svm_features names
// imply a feature mode.
const (
	ClassifierNN          = "nn"
	ClassifierSVM         = "svm"
	ClassifierSVMAuto     = "svm_auto"
	ClassifierSVMFeatures = "svm_features"
)

// S4 configures self-supervised landmark discovery.
type S4 struct {
	// Classifier is one of nn, svm, svm_auto or svm_features.
	Classifier string `json:"cls_model"`

	// Features is concat or cosine. Empty means the default of the
	// classifier name; plain svm has none and needs it set.
	Features string `json:"features,omitempty"`

	Iters      int     `json:"iters"`
	NTargets   int     `json:"n_targets"`
	NNegatives int     `json:"n_negatives"`
	Rate       float64 `json:"rate"`

	// T is the decision threshold: words scored below it are landmarks.
	T float64 `json:"t"`

	// TOverlap stops the loop once the running mean Jaccard overlap of
	// consecutive landmark sets exceeds it.
	TOverlap float64 `json:"t_overlap"`

	// Landmarks seeds the landmark set. Required if UpdateLandmarks is false.
	Landmarks []string `json:"landmarks,omitempty"`

	// UpdateLandmarks re-partitions the vocabulary every iteration. Defaults
	// to true when unset.
	UpdateLandmarks *bool `json:"update_landmarks,omitempty"`

	// MaxTries bounds the resampling in change injection.
	MaxTries int `json:"max_tries"`
}

// DefaultS4 returns the S4 defaults.
func DefaultS4() S4 {
	return S4{
		Classifier: ClassifierNN,
		Iters:      100,
		NTargets:   10,
		NNegatives: 10,
		Rate:       0,
		T:          0.5,
		TOverlap:   1,
		MaxTries:   50,
	}
}

func (S4) Kind() Kind { return KindS4 }
func (S4) sealed()    {}

func (c S4) updateLandmarks() bool {
	return c.UpdateLandmarks == nil || *c.UpdateLandmarks
}

// Resolve returns the classifier kind and feature mode c selects.
func (c S4) Resolve() (classifier.Kind, classifier.FeatureMode, error) {
	var (
		kind     classifier.Kind
		features classifier.FeatureMode
	)
	switch c.Classifier {
	case ClassifierNN:
		kind, features = classifier.KindMLP, classifier.Concat
	case ClassifierSVM:
		kind = classifier.KindSVM
	case ClassifierSVMAuto:
		kind, features = classifier.KindSVM, classifier.Concat
	case ClassifierSVMFeatures:
		kind, features = classifier.KindSVM, classifier.Cosine
	default:
		return "", "", fmt.Errorf("%w: unknown cls_model %q", ErrConfig, c.Classifier)
	}

	switch c.Features {
	case "":
	case string(classifier.Concat):
		features = classifier.Concat
	case string(classifier.Cosine), "cos":
		features = classifier.Cosine
	default:
		return "", "", fmt.Errorf("%w: unknown features %q", ErrConfig, c.Features)
	}
	if features == "" {
		return "", "", fmt.Errorf("%w: cls_model %q needs features set to concat or cosine", ErrConfig, c.Classifier)
	}
	return kind, features, nil
}

// Validate implements Config.
func (c S4) Validate() error {
	if _, _, err := c.Resolve(); err != nil {
		return err
	}
	switch {
	case c.Iters < 1:
		return fmt.Errorf("%w: iters must be at least 1, got %d", ErrConfig, c.Iters)
	case c.NTargets < 1:
		return fmt.Errorf("%w: n_targets must be at least 1, got %d", ErrConfig, c.NTargets)
	case c.NNegatives < 1:
		return fmt.Errorf("%w: n_negatives must be at least 1, got %d", ErrConfig, c.NNegatives)
	case c.Rate < 0:
		return fmt.Errorf("%w: rate must be non-negative, got %g", ErrConfig, c.Rate)
	case c.T <= 0 || c.T >= 1:
		return fmt.Errorf("%w: t must be in (0, 1), got %g", ErrConfig, c.T)
	case c.TOverlap < 0:
		return fmt.Errorf("%w: t_overlap must be non-negative, got %g", ErrConfig, c.TOverlap)
	case c.MaxTries < 1:
		return fmt.Errorf("%w: max_tries must be at least 1, got %d", ErrConfig, c.MaxTries)
	case !c.updateLandmarks() && len(c.Landmarks) == 0:
		return fmt.Errorf("%w: landmarks are required when update_landmarks is false", ErrConfig)
	}
	return nil
}

type envelope struct {
	Type Kind            `json:"alignment_type"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ParseConfig decodes {"alignment_type": ..., "args": {...}}. Missing
// arguments keep their defaults. The result is validated.
func ParseConfig(data []byte) (Config, error) {
	var env envelope
	if err := (codec.JSON{}).Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var cfg Config
	switch env.Type {
	case KindGlobal:
		g := Global{}
		if err := decodeArgs(env.Args, &g); err != nil {
			return nil, err
		}
		cfg = g
	case KindNoiseAware:
		c := DefaultNoiseAware()
		if err := decodeArgs(env.Args, &c); err != nil {
			return nil, err
		}
		cfg = c
	case KindS4:
		c := DefaultS4()
		if err := decodeArgs(env.Args, &c); err != nil {
			return nil, err
		}
		cfg = c
	default:
		return nil, fmt.Errorf("%w: unknown alignment_type %q", ErrConfig, env.Type)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := (codec.JSON{}).Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: args: %w", ErrConfig, err)
	}
	return nil
}

// Marshal encodes cfg in the envelope read by ParseConfig.
func Marshal(cfg Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfig)
	}
	args, err := (codec.JSON{}).Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return (codec.JSON{}).Marshal(envelope{Type: cfg.Kind(), Args: args})
}
