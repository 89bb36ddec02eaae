package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/world"
)

// HalfWidth is half the horizontal size of a standing body.
const HalfWidth = 0.3

// Collides reports whether a body with its feet centred at pos overlaps any solid block.
func Collides(pos mgl32.Vec3, height float32, solid SolidQuerier) bool {
	minX := int(math.Floor(float64(pos.X() - HalfWidth)))
	maxX := int(math.Floor(float64(pos.X() + HalfWidth)))
	minY := int(math.Floor(float64(pos.Y())))
	maxY := int(math.Floor(float64(pos.Y() + height)))
	minZ := int(math.Floor(float64(pos.Z() - HalfWidth)))
	maxZ := int(math.Floor(float64(pos.Z() + HalfWidth)))

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if !solid.IsSolid(world.Pos{X: x, Y: y, Z: z}) {
					continue
				}
				bx, by, bz := float32(x), float32(y), float32(z)
				if pos.X()-HalfWidth < bx+1 && pos.X()+HalfWidth > bx &&
					pos.Y() < by+1 && pos.Y()+height > by &&
					pos.Z()-HalfWidth < bz+1 && pos.Z()+HalfWidth > bz {
					return true
				}
			}
		}
	}
	return false
}

// FindGroundLevel returns the top of the highest solid block under the body at
// (x, z), searching down from fromY to WorldMinY. ok is false when there is none.
func FindGroundLevel(x, z, fromY float32, solid SolidQuerier) (ground float32, ok bool) {
	minX := int(math.Floor(float64(x - HalfWidth)))
	maxX := int(math.Floor(float64(x + HalfWidth)))
	minZ := int(math.Floor(float64(z - HalfWidth)))
	maxZ := int(math.Floor(float64(z + HalfWidth)))

	best := float32(world.WorldMinY)
	for bx := minX; bx <= maxX; bx++ {
		for bz := minZ; bz <= maxZ; bz++ {
			for by := int(math.Floor(float64(fromY))); by >= world.WorldMinY; by-- {
				if solid.IsSolid(world.Pos{X: bx, Y: by, Z: bz}) {
					top := float32(by) + 1 // Top of block
					if !ok || top > best {
						best = top
						ok = true
					}
					break
				}
			}
		}
	}
	return best, ok
}
