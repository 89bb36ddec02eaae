package storage

import (
	"sort"

	"voxelworld/internal/world"
)

// sortKeys orders keys by x, z, then y to match world.Chunks.
func sortKeys(keys []world.ChunkKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
}
