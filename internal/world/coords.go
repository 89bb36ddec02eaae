package world

import "fmt"

// Pos is a world-space (or chunk-local) block position.
type Pos struct {
	X, Y, Z int
}

func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// ChunkCoord is the horizontal chunk cell of a column of chunks.
type ChunkCoord struct {
	X, Z int
}

// ChunkKey identifies one chunk: its horizontal cell plus the world Y of its lowest layer.
type ChunkKey struct {
	X, Y, Z int
}

func (k ChunkKey) Coord() ChunkCoord {
	return ChunkCoord{X: k.X, Z: k.Z}
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("chunk(%d,%d,%d)", k.X, k.Y, k.Z)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// EuclidMod returns a mod n in [0, n) for positive n, also for negative a.
func EuclidMod(a, n int) int {
	return ((a % n) + n) % n
}

// WorldToChunkCoord returns the chunk cell containing world column (x, z).
func WorldToChunkCoord(x, z int) ChunkCoord {
	return ChunkCoord{X: floorDiv(x, ChunkWidth), Z: floorDiv(z, ChunkDepth)}
}

// ChunkYOffset returns the lowest world Y of the chunk band containing y.
// Bands are aligned to WorldMinY, not to zero.
func ChunkYOffset(y int) int {
	return floorDiv(y-WorldMinY, ChunkHeight)*ChunkHeight + WorldMinY
}

// WorldToLocal splits a world position into chunk cell, band offset and local position.
func WorldToLocal(p Pos) (ChunkCoord, int, Pos) {
	coord := WorldToChunkCoord(p.X, p.Z)
	yOffset := ChunkYOffset(p.Y)
	local := Pos{
		X: EuclidMod(p.X, ChunkWidth),
		Y: p.Y - yOffset,
		Z: EuclidMod(p.Z, ChunkDepth),
	}
	return coord, yOffset, local
}

// LocalToWorld is the inverse of WorldToLocal.
func LocalToWorld(coord ChunkCoord, yOffset int, local Pos) Pos {
	return Pos{
		X: coord.X*ChunkWidth + local.X,
		Y: yOffset + local.Y,
		Z: coord.Z*ChunkDepth + local.Z,
	}
}

// KeyOf returns the key of the chunk containing p.
func KeyOf(p Pos) ChunkKey {
	coord, yOffset, _ := WorldToLocal(p)
	return ChunkKey{X: coord.X, Y: yOffset, Z: coord.Z}
}

// IsBandAligned reports whether yOffset is a valid chunk band offset.
func IsBandAligned(yOffset int) bool {
	return EuclidMod(yOffset-WorldMinY, ChunkHeight) == 0
}

func inLocalBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && y >= 0 && y < ChunkHeight && z >= 0 && z < ChunkDepth
}

// localIndex converts local chunk coordinates (x, y, z) → flat index
func localIndex(x, y, z int) int {
	return x + z*ChunkWidth + y*ChunkWidth*ChunkDepth
}
