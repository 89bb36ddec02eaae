package terrain

import (
	"fmt"
	"strings"
)

// BiomeMix selects the height formula used across the whole world.
type BiomeMix int

const (
	BiomeBalanced BiomeMix = iota
	BiomeFlat
	BiomeHighlands
	BiomeArchipelago
)

var biomeMixNames = map[BiomeMix]string{
	BiomeBalanced:    "balanced",
	BiomeFlat:        "flat",
	BiomeHighlands:   "highlands",
	BiomeArchipelago: "archipelago",
}

func (b BiomeMix) String() string {
	if s, ok := biomeMixNames[b]; ok {
		return s
	}
	return fmt.Sprintf("BiomeMix(%d)", int(b))
}

// ParseBiomeMix accepts the names printed by String, case-insensitively.
func ParseBiomeMix(s string) (BiomeMix, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b, name := range biomeMixNames {
		if name == s {
			return b, nil
		}
	}
	return BiomeBalanced, fmt.Errorf("unknown biome mix %q", s)
}

func (b BiomeMix) MarshalText() ([]byte, error) {
	if _, ok := biomeMixNames[b]; !ok {
		return nil, fmt.Errorf("unknown biome mix %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *BiomeMix) UnmarshalText(text []byte) error {
	v, err := ParseBiomeMix(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// WorldSettings configures generation for one world. It is a plain value:
// changing settings means building a new world and generator.
type WorldSettings struct {
	Seed        int64    `yaml:"seed"`
	Mountainous float64  `yaml:"mountainous"`
	Roughness   float64  `yaml:"roughness"`
	Moisture    float64  `yaml:"moisture"`
	Temperature float64  `yaml:"temperature"`
	Trees       float64  `yaml:"trees"`
	LavaPockets float64  `yaml:"lava_pockets"`
	BiomeMix    BiomeMix `yaml:"biome_mix"`
	Surprises   bool     `yaml:"surprises"`
}

// DefaultWorldSettings returns mid-range settings with seed 0.
func DefaultWorldSettings() WorldSettings {
	return WorldSettings{
		Mountainous: 0.5,
		Roughness:   0.5,
		Moisture:    0.5,
		Temperature: 0.5,
		Trees:       0.5,
		LavaPockets: 0.3,
		BiomeMix:    BiomeBalanced,
	}
}

// NewWorldSettings returns the defaults with the given seed and biome mix.
func NewWorldSettings(seed int64, mix BiomeMix) WorldSettings {
	s := DefaultWorldSettings()
	s.Seed = seed
	s.BiomeMix = mix
	return s
}

// Clamped returns a copy with every factor limited to [0,1] and an unknown
// biome mix replaced by BiomeBalanced.
func (s WorldSettings) Clamped() WorldSettings {
	s.Mountainous = clamp01(s.Mountainous)
	s.Roughness = clamp01(s.Roughness)
	s.Moisture = clamp01(s.Moisture)
	s.Temperature = clamp01(s.Temperature)
	s.Trees = clamp01(s.Trees)
	s.LavaPockets = clamp01(s.LavaPockets)
	if _, ok := biomeMixNames[s.BiomeMix]; !ok {
		s.BiomeMix = BiomeBalanced
	}
	return s
}

func clamp01(v float64) float64 {
	if v != v || v < 0 { // NaN
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
