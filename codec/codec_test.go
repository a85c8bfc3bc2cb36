package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vocab struct {
	Words []string  `json:"words" yaml:"words"`
	Shift []float64 `json:"shift" yaml:"shift"`
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}
	assert.Equal(t, []string{"json", "yaml"}, Names())

	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestCodecs(t *testing.T) {
	in := vocab{Words: []string{"bank", "cell"}, Shift: []float64{0.25, 1.5}}

	for _, c := range []Codec{JSON{}, YAML{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out vocab
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestNonFinite(t *testing.T) {
	in := []float64{math.Inf(1), 0.5}

	_, err := JSON{}.Marshal(in)
	assert.Error(t, err)

	data, err := YAML{}.Marshal(in)
	require.NoError(t, err)
	var out []float64
	require.NoError(t, YAML{}.Unmarshal(data, &out))
	assert.True(t, math.IsInf(out[0], 1))
	assert.Equal(t, 0.5, out[1])
}
