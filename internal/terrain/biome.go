package terrain

import (
	"math"

	"voxelworld/internal/world"
)

// Height limits for the generated surface.
const (
	MinSurfaceY = world.WorldMinY + 3
	MaxSurfaceY = 180

	// spireHeight is the most a surprise spire adds to the surface.
	spireHeight    = 18.0
	spireThreshold = 0.35
)

// amplitudes returns the base amplitude A and the secondary amplitude R.
func amplitudes(s WorldSettings) (a, r float64) {
	return 8 + 56*s.Mountainous, 2 + 14*s.Roughness
}

// mixHeight applies the biome mix formula to the three height samples.
func mixHeight(s WorldSettings, low, mid, high float64) float64 {
	a, r := amplitudes(s)
	sea := float64(world.SeaLevel)
	switch s.BiomeMix {
	case BiomeFlat:
		return sea + 4 + 0.15*a*low + 0.25*r*mid + 0.1*r*high
	case BiomeHighlands:
		return sea + 24 + 1.2*a*math.Abs(low) + 0.6*r*mid + 0.3*r*math.Abs(high)
	case BiomeArchipelago:
		return sea - 14 + 1.8*a*math.Max(0, low+0.15) + 0.5*r*mid + 0.2*r*high
	default:
		return sea + 6 + a*low + 0.5*r*mid + 0.25*r*high + 0.2*r*(s.Temperature-0.5)
	}
}

// spire returns the extra height a detail sample adds when surprises are on.
func spire(detail float64) float64 {
	if detail <= spireThreshold {
		return 0
	}
	return math.Min(spireHeight, (detail-spireThreshold)/(1-spireThreshold)*spireHeight)
}

func clampSurface(h float64) int {
	y := int(math.Floor(h))
	if y < MinSurfaceY {
		return MinSurfaceY
	}
	if y > MaxSurfaceY {
		return MaxSurfaceY
	}
	return y
}
