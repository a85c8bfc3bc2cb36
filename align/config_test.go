package align

import (
	"testing"

	"github.com/hupe1980/semshift/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"alignment_type": "global"}`))
	require.NoError(t, err)
	assert.Equal(t, Global{}, cfg)

	cfg, err = ParseConfig([]byte(`{"alignment_type": "noise-aware", "args": {}}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultNoiseAware(), cfg)

	cfg, err = ParseConfig([]byte(`{"alignment_type": "s4", "args": null}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultS4(), cfg)
}

func TestParseConfig_Args(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"alignment_type": "global", "args": {"anchor_top": 100, "exclude": ["the"]}}`))
	require.NoError(t, err)
	g := cfg.(Global)
	require.NotNil(t, g.AnchorTop)
	assert.Equal(t, 100, *g.AnchorTop)
	assert.Equal(t, []string{"the"}, g.Exclude)

	cfg, err = ParseConfig([]byte(`{"alignment_type": "noise-aware", "args": {"is_soft": false}}`))
	require.NoError(t, err)
	assert.False(t, cfg.(NoiseAware).Soft)
	assert.Equal(t, 0.01, cfg.(NoiseAware).Threshold)

	cfg, err = ParseConfig([]byte(`{"alignment_type": "s4", "args": {"cls_model": "svm_features", "iters": 20, "t_overlap": 0.9, "update_landmarks": true}}`))
	require.NoError(t, err)
	s := cfg.(S4)
	assert.Equal(t, 20, s.Iters)
	assert.Equal(t, 0.9, s.TOverlap)
	assert.Equal(t, 10, s.NTargets)
	assert.Equal(t, KindS4, s.Kind())
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []string{
		`not json`,
		`{"alignment_type": "affine"}`,
		`{"alignment_type": "global", "args": {"anchor_top": "ten"}}`,
		`{"alignment_type": "global", "args": {"anchor_bot": -1}}`,
		`{"alignment_type": "noise-aware", "args": {"threshold": 0}}`,
		`{"alignment_type": "s4", "args": {"cls_model": "forest"}}`,
		`{"alignment_type": "s4", "args": {"cls_model": "svm"}}`,
		`{"alignment_type": "s4", "args": {"features": "pca"}}`,
		`{"alignment_type": "s4", "args": {"t": 1.5}}`,
		`{"alignment_type": "s4", "args": {"update_landmarks": false}}`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseConfig([]byte(in))
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestS4_Resolve(t *testing.T) {
	tests := []struct {
		model    string
		features string
		kind     classifier.Kind
		mode     classifier.FeatureMode
	}{
		{ClassifierNN, "", classifier.KindMLP, classifier.Concat},
		{ClassifierNN, "cosine", classifier.KindMLP, classifier.Cosine},
		{ClassifierSVM, "concat", classifier.KindSVM, classifier.Concat},
		{ClassifierSVMAuto, "", classifier.KindSVM, classifier.Concat},
		{ClassifierSVMFeatures, "", classifier.KindSVM, classifier.Cosine},
		{ClassifierSVMFeatures, "concat", classifier.KindSVM, classifier.Concat},
		{ClassifierSVM, "cos", classifier.KindSVM, classifier.Cosine},
	}
	for _, tt := range tests {
		t.Run(tt.model+"/"+tt.features, func(t *testing.T) {
			cfg := DefaultS4()
			cfg.Classifier = tt.model
			cfg.Features = tt.features

			kind, mode, err := cfg.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.mode, mode)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	update := false
	s4 := DefaultS4()
	s4.Landmarks = []string{"a", "b"}
	s4.UpdateLandmarks = &update

	for _, cfg := range []Config{
		Global{Name: "g", AnchorWords: []string{"x"}, Exclude: []string{"y"}},
		NoiseAware{Name: "na", Soft: false, Threshold: 0.05, MaxIters: 10},
		s4,
	} {
		t.Run(string(cfg.Kind()), func(t *testing.T) {
			data, err := Marshal(cfg)
			require.NoError(t, err)

			got, err := ParseConfig(data)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}

	_, err := Marshal(nil)
	assert.ErrorIs(t, err, ErrConfig)
}
