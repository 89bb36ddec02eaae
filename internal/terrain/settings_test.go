package terrain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBiomeMixText(t *testing.T) {
	for _, b := range []BiomeMix{BiomeBalanced, BiomeFlat, BiomeHighlands, BiomeArchipelago} {
		text, err := b.MarshalText()
		require.NoError(t, err)

		var got BiomeMix
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, b, got)
	}

	got, err := ParseBiomeMix("  HighLands ")
	require.NoError(t, err)
	assert.Equal(t, BiomeHighlands, got)

	_, err = ParseBiomeMix("desert")
	assert.Error(t, err)

	_, err = BiomeMix(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "BiomeMix(42)", BiomeMix(42).String())
}

func TestWorldSettingsYAML(t *testing.T) {
	var s WorldSettings
	require.NoError(t, yaml.Unmarshal([]byte("seed: 7\nbiome_mix: archipelago\nlava_pockets: 0.25\nsurprises: true\n"), &s))
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, BiomeArchipelago, s.BiomeMix)
	assert.Equal(t, 0.25, s.LavaPockets)
	assert.True(t, s.Surprises)

	require.Error(t, yaml.Unmarshal([]byte("biome_mix: swamp\n"), &s))
}

func TestWorldSettingsClamped(t *testing.T) {
	s := WorldSettings{
		Mountainous: -1,
		Roughness:   2,
		Moisture:    math.NaN(),
		Temperature: 0.3,
		Trees:       1.5,
		LavaPockets: -0.1,
		BiomeMix:    BiomeMix(99),
	}.Clamped()

	assert.Equal(t, 0.0, s.Mountainous)
	assert.Equal(t, 1.0, s.Roughness)
	assert.Equal(t, 0.0, s.Moisture)
	assert.Equal(t, 0.3, s.Temperature)
	assert.Equal(t, 1.0, s.Trees)
	assert.Equal(t, 0.0, s.LavaPockets)
	assert.Equal(t, BiomeBalanced, s.BiomeMix)
}

func TestNewWorldSettings(t *testing.T) {
	s := NewWorldSettings(99, BiomeFlat)
	assert.Equal(t, int64(99), s.Seed)
	assert.Equal(t, BiomeFlat, s.BiomeMix)
	assert.Equal(t, DefaultWorldSettings().Trees, s.Trees)
}
