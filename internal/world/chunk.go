package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// ErrMalformedBuffer is returned when a serialized chunk has the wrong length.
var ErrMalformedBuffer = errors.New("malformed chunk buffer")

// Chunk represents a 32x64x32 block of voxels.
//
// Voxels are stored in one linear slice indexed x + z*W + y*W*D. Every mutation
// marks the chunk dirty and bumps its version; the mesher clears the flag only
// if the version it meshed is still current.
type Chunk struct {
	coord   ChunkCoord
	yOffset int

	mu     sync.RWMutex
	voxels []Voxel

	dirty     atomic.Bool
	version   atomic.Uint64
	generated atomic.Bool
}

// NewChunk creates an all-air chunk. yOffset must be band aligned (see ChunkYOffset).
func NewChunk(coord ChunkCoord, yOffset int) *Chunk {
	return &Chunk{
		coord:   coord,
		yOffset: yOffset,
		voxels:  make([]Voxel, ChunkVolume),
	}
}

func (c *Chunk) Coord() ChunkCoord { return c.coord }

func (c *Chunk) YOffset() int { return c.yOffset }

func (c *Chunk) Key() ChunkKey {
	return ChunkKey{X: c.coord.X, Y: c.yOffset, Z: c.coord.Z}
}

// Origin returns the world position of local (0,0,0).
func (c *Chunk) Origin() Pos {
	return LocalToWorld(c.coord, c.yOffset, Pos{})
}

// Voxel returns the packed cell at local coordinates; out of range reads as air.
func (c *Chunk) Voxel(x, y, z int) Voxel {
	if !inLocalBounds(x, y, z) {
		return 0
	}
	c.mu.RLock()
	v := c.voxels[localIndex(x, y, z)]
	c.mu.RUnlock()
	return v
}

// SetVoxel overwrites the packed cell at local coordinates.
func (c *Chunk) SetVoxel(x, y, z int, v Voxel) {
	if !inLocalBounds(x, y, z) {
		return
	}
	c.mu.Lock()
	c.voxels[localIndex(x, y, z)] = v
	c.markDirtyLocked()
	c.mu.Unlock()
}

// BlockID returns the block id at the specified local coordinates
func (c *Chunk) BlockID(x, y, z int) BlockID {
	return c.Voxel(x, y, z).ID()
}

// SetBlockID sets the block id at the specified local coordinates, keeping its metadata.
func (c *Chunk) SetBlockID(x, y, z int, id BlockID) {
	if !inLocalBounds(x, y, z) {
		return
	}
	c.mu.Lock()
	i := localIndex(x, y, z)
	c.voxels[i] = c.voxels[i].WithID(id)
	c.markDirtyLocked()
	c.mu.Unlock()
}

func (c *Chunk) Meta(x, y, z int) Meta {
	return c.Voxel(x, y, z).Meta()
}

// SetMeta sets the metadata at the specified local coordinates, keeping the block id.
func (c *Chunk) SetMeta(x, y, z int, m Meta) {
	if !inLocalBounds(x, y, z) {
		return
	}
	c.mu.Lock()
	i := localIndex(x, y, z)
	c.voxels[i] = c.voxels[i].WithMeta(m)
	c.markDirtyLocked()
	c.mu.Unlock()
}

// IsAir checks if the block at the specified local coordinates is air
func (c *Chunk) IsAir(x, y, z int) bool {
	return c.BlockID(x, y, z) == BlockAir
}

// Fill overwrites every cell with id and zero metadata.
func (c *Chunk) Fill(id BlockID) {
	v := PackVoxel(id, 0)
	c.mu.Lock()
	for i := range c.voxels {
		c.voxels[i] = v
	}
	c.markDirtyLocked()
	c.mu.Unlock()
}

// Serialize returns exactly SerializedChunkSize bytes, one little-endian word per voxel.
func (c *Chunk) Serialize() []byte {
	buf := make([]byte, SerializedChunkSize)
	c.mu.RLock()
	for i, v := range c.voxels {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	c.mu.RUnlock()
	return buf
}

// Deserialize replaces the voxels from buf and marks the chunk dirty.
// A buffer of the wrong length is rejected and the chunk is left untouched.
func (c *Chunk) Deserialize(buf []byte) error {
	if len(buf) != SerializedChunkSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedBuffer, len(buf), SerializedChunkSize)
	}
	voxels := make([]Voxel, ChunkVolume)
	for i := range voxels {
		voxels[i] = Voxel(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	c.mu.Lock()
	c.voxels = voxels
	c.markDirtyLocked()
	c.mu.Unlock()
	return nil
}

func (c *Chunk) markDirtyLocked() {
	c.version.Inc()
	c.dirty.Store(true)
}

// MarkDirty flags the chunk for remeshing without touching its voxels.
func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	c.markDirtyLocked()
	c.mu.Unlock()
}

// ClearDirty unconditionally marks the mesh as current.
func (c *Chunk) ClearDirty() {
	c.mu.Lock()
	c.dirty.Store(false)
	c.mu.Unlock()
}

// ClearDirtyAt clears the dirty flag only if nothing changed since version was read.
// It returns false when a newer mutation must still be meshed.
func (c *Chunk) ClearDirtyAt(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version.Load() != version {
		return false
	}
	c.dirty.Store(false)
	return true
}

// NeedsRemesh returns whether the chunk has been modified since its last mesh.
func (c *Chunk) NeedsRemesh() bool {
	return c.dirty.Load()
}

// Version is a counter bumped by every mutation.
func (c *Chunk) Version() uint64 {
	return c.version.Load()
}

// MarkGenerated records that terrain generation has populated this chunk.
func (c *Chunk) MarkGenerated() {
	c.generated.Store(true)
}

func (c *Chunk) Generated() bool {
	return c.generated.Load()
}

// Snapshot copies the voxels together with the version they correspond to.
func (c *Chunk) Snapshot() ([]Voxel, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voxel, len(c.voxels))
	copy(out, c.voxels)
	return out, c.version.Load()
}

// NonAirCount returns the number of cells holding a non-air block.
func (c *Chunk) NonAirCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, v := range c.voxels {
		if v.ID() != BlockAir {
			n++
		}
	}
	return n
}

// SnapshotBlock reads a block id from a slice returned by Snapshot.
func SnapshotBlock(voxels []Voxel, x, y, z int) BlockID {
	if !inLocalBounds(x, y, z) || len(voxels) != ChunkVolume {
		return BlockAir
	}
	return voxels[localIndex(x, y, z)].ID()
}
