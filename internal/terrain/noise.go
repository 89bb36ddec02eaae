package terrain

import (
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Perlin parameters shared by every field.
const (
	noiseAlpha   = 2.0 // smoothing
	noiseBeta    = 2.0 // frequency
	noiseOctaves = int32(3)
)

// fields holds the independent noise sources of one generator.
type fields struct {
	height *perlin.Perlin
	detail *perlin.Perlin
	tree   *perlin.Perlin
	lava   *perlin.Perlin

	// treeSeed feeds the per-column tree hash.
	treeSeed int64
}

// newFields derives every field seed from one PRNG so a world seed always
// produces the same fields in the same order.
func newFields(seed int64) *fields {
	rng := rand.New(rand.NewSource(seed))
	return &fields{
		height:   perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63()),
		detail:   perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63()),
		tree:     perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63()),
		lava:     perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, rng.Int63()),
		treeSeed: rng.Int63(),
	}
}

// Sample scales. Offsets keep samples off the integer lattice where perlin is zero.
const (
	lowScale    = 1.0 / 256
	midScale    = 1.0 / 64
	highScale   = 1.0 / 16
	detailScale = 1.0 / 40
	treeScale   = 1.0 / 48
	lavaScale   = 1.0 / 12
)

// heightSamples returns low, mid and high frequency samples of the height field, each roughly in [-1,1].
func (f *fields) heightSamples(x, z int) (low, mid, high float64) {
	fx, fz := float64(x), float64(z)
	low = f.height.Noise2D(fx*lowScale+0.31, fz*lowScale+0.17)
	mid = f.height.Noise2D(fx*midScale+101.5, fz*midScale+57.3)
	high = f.height.Noise2D(fx*highScale-43.7, fz*highScale+211.1)
	return low, mid, high
}

func (f *fields) detailAt(x, z int) float64 {
	return f.detail.Noise2D(float64(x)*detailScale+0.5, float64(z)*detailScale+0.5)
}

// treeDensity maps the tree field to [0,1].
func (f *fields) treeDensity(x, z int) float64 {
	n := f.tree.Noise2D(float64(x)*treeScale+0.5, float64(z)*treeScale+0.5)
	return clamp01((n + 1) / 2)
}

// lavaAt samples the lava field on a plane skewed by depth so pockets vary with y.
func (f *fields) lavaAt(x, y, z int) float64 {
	fy := float64(y)
	return f.lava.Noise2D(float64(x)*lavaScale+fy*0.11+0.5, float64(z)*lavaScale-fy*0.07+0.5)
}

// hash2 is a SplitMix64 style integer hash, stable across runs for same inputs.
// Separate multipliers per axis keep neighbouring columns uncorrelated.
func hash2(x, z int64, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	v = v ^ (v >> 31)
	return v
}

// columnRoll returns a deterministic value in [0,1] for a world column.
func columnRoll(x, z int, seed int64) float64 {
	h := hash2(int64(x), int64(z), seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}
