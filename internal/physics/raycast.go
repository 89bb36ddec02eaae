package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0

	rayStep = float32(0.02)
)

// SolidQuerier answers whether the block at a world position is solid.
// *world.World satisfies it.
type SolidQuerier interface {
	IsSolid(p world.Pos) bool
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      world.Pos
	AdjacentPosition world.Pos // last empty cell before the hit; where a placed block goes
	Distance         float32
	Hit              bool
}

// blockAt returns the cell containing p. Block (x,y,z) spans [x,x+1) on each axis.
func blockAt(p mgl32.Vec3) world.Pos {
	return world.Pos{
		X: int(math.Floor(float64(p.X()))),
		Y: int(math.Floor(float64(p.Y()))),
		Z: int(math.Floor(float64(p.Z()))),
	}
}

// Raycast performs a ray casting operation from a starting point in a given direction
func Raycast(start mgl32.Vec3, direction mgl32.Vec3, minDist, maxDist float32, solid SolidQuerier) RaycastResult {
	result := RaycastResult{Hit: false}
	if solid == nil || direction.Len() == 0 {
		return result
	}
	direction = direction.Normalize()
	steps := int(maxDist / rayStep)

	lastEmptyPos := blockAt(start)
	for i := 0; i <= steps; i++ {
		dist := float32(i) * rayStep
		if dist < minDist {
			continue
		}

		pos := start.Add(direction.Mul(dist))
		blockPos := blockAt(pos)

		if solid.IsSolid(blockPos) {
			result.HitPosition = blockPos
			result.AdjacentPosition = lastEmptyPos
			result.Distance = dist
			result.Hit = true
			return result
		}

		lastEmptyPos = blockPos
	}

	return result
}
