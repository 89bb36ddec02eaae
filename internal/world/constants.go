package world

const (
	// World extents
	WorldWidth = 1024
	WorldDepth = 1024
	WorldMinY  = -32
	WorldMaxY  = 192
	SeaLevel   = 0

	// Chunk dimensions
	ChunkWidth  = 32
	ChunkHeight = 64
	ChunkDepth  = 32

	ChunkVolume = ChunkWidth * ChunkHeight * ChunkDepth

	// SerializedChunkSize is the exact length of a persisted chunk: one 16-bit word per voxel.
	SerializedChunkSize = ChunkVolume * 2

	// Horizontal chunk grid covering the world.
	GridChunksX = WorldWidth / ChunkWidth
	GridChunksZ = WorldDepth / ChunkDepth
)
