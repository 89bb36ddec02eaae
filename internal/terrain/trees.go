package terrain

import (
	"voxelworld/internal/world"
)

// maxTreeChance is the per-column tree probability at full density, trees and moisture.
const maxTreeChance = 0.05

// treeChance returns the probability of a tree rooted at column (x, z).
func (g *Generator) treeChance(x, z int) float64 {
	s := g.settings
	return maxTreeChance * s.Trees * (0.3 + 0.7*s.Moisture) * g.fields.treeDensity(x, z)
}

// maybeTree places a tree on the surface at (x, surface, z) if the column rolls one.
func (g *Generator) maybeTree(x, surface, z int) bool {
	chance := g.treeChance(x, z)
	if chance <= 0 || columnRoll(x, z, g.fields.treeSeed) >= chance {
		return false
	}
	if g.world.GetBlock(world.Pos{X: x, Y: surface, Z: z}) != world.BlockGrass {
		return false
	}
	trunk := 4 + int(hash2(int64(x), int64(z), g.fields.treeSeed+1)%3) // 4-6
	g.placeTree(x, surface+1, z, trunk)
	return true
}

// placeTree places a trunk and a diamond shaped leaf canopy. Writes go
// through World so they may land in neighbouring chunks.
func (g *Generator) placeTree(x, baseY, z, trunk int) {
	top := baseY + trunk
	if top+2 > world.WorldMaxY {
		return
	}

	for y := baseY; y < top; y++ {
		p := world.Pos{X: x, Y: y, Z: z}
		if id := g.world.GetBlock(p); id == world.BlockAir || id == world.BlockLeaves {
			g.world.SetBlock(p, world.BlockLog)
		}
	}

	leafBase := top - 2
	for dy := 0; dy < 4; dy++ {
		y := leafBase + dy
		radius := 2
		if dy >= 2 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				if abs(dx)+abs(dz) > radius {
					continue
				}
				// Don't replace trunk.
				if dx == 0 && dz == 0 && y < top {
					continue
				}
				p := world.Pos{X: x + dx, Y: y, Z: z + dz}
				if !world.IsInBounds(p) {
					continue
				}
				if g.world.GetBlock(p) == world.BlockAir {
					g.world.SetBlock(p, world.BlockLeaves)
				}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
