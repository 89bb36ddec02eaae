package world

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"voxelworld/internal/metrics"
)

// World maps a sparse voxel world onto lazily created fixed-size chunks.
type World struct {
	id      uuid.UUID
	props   BlockProperties
	log     *slog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	chunks   map[ChunkKey]*Chunk
	modCount uint64 // Increases on any chunk add/remove

	// Per-column index for fast XZ radius queries, each column sorted by yOffset.
	colIndex map[ChunkCoord][]*Chunk
}

// Option configures a World.
type Option func(*World)

// WithID sets the world identity used to namespace persisted chunks.
func WithID(id uuid.UUID) Option {
	return func(w *World) { w.id = id }
}

func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *World) { w.metrics = m }
}

// New creates an empty world. props is consulted by IsSolid and IsOpaque.
func New(props BlockProperties, opts ...Option) *World {
	if props == nil {
		props = inertProperties{}
	}
	w := &World{
		id:       uuid.New(),
		props:    props,
		log:      slog.Default(),
		chunks:   make(map[ChunkKey]*Chunk),
		colIndex: make(map[ChunkCoord][]*Chunk),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// inertProperties treats every block as non-opaque and non-solid.
type inertProperties struct{}

func (inertProperties) IsOpaque(BlockID) bool { return false }
func (inertProperties) IsSolid(BlockID) bool  { return false }

func (w *World) ID() uuid.UUID { return w.id }

func (w *World) Properties() BlockProperties { return w.props }

func (w *World) Metrics() *metrics.Metrics { return w.metrics }

func (w *World) Logger() *slog.Logger { return w.log }

// Chunk returns the chunk at (coord, yOffset) or nil. It never creates one.
func (w *World) Chunk(coord ChunkCoord, yOffset int) *Chunk {
	w.mu.RLock()
	c := w.chunks[ChunkKey{X: coord.X, Y: yOffset, Z: coord.Z}]
	w.mu.RUnlock()
	return c
}

// ChunkAt returns the chunk containing world position p, or nil.
func (w *World) ChunkAt(p Pos) *Chunk {
	coord, yOffset, _ := WorldToLocal(p)
	return w.Chunk(coord, yOffset)
}

// GetOrCreateChunk returns the chunk at (coord, yOffset), creating an empty one if needed.
// yOffset is snapped to its band so callers cannot create misaligned chunks.
func (w *World) GetOrCreateChunk(coord ChunkCoord, yOffset int) *Chunk {
	yOffset = ChunkYOffset(yOffset)
	key := ChunkKey{X: coord.X, Y: yOffset, Z: coord.Z}

	w.mu.RLock()
	c, ok := w.chunks[key]
	w.mu.RUnlock()
	if ok {
		return c
	}

	w.mu.Lock()
	// Double-check locking: another goroutine might have created it while we were waiting for the lock
	if existing, ok := w.chunks[key]; ok {
		w.mu.Unlock()
		return existing
	}
	c = NewChunk(coord, yOffset)
	w.insertLocked(c)
	w.mu.Unlock()

	w.metrics.ChunkCreated()
	w.log.Debug("chunk created", "chunk", key.String())
	return c
}

// PutChunk installs a pre-built chunk, e.g. one loaded from storage.
// An existing chunk with the same key is replaced.
func (w *World) PutChunk(c *Chunk) {
	if c == nil {
		return
	}
	w.mu.Lock()
	if old, ok := w.chunks[c.Key()]; ok {
		w.removeLocked(old)
	}
	w.insertLocked(c)
	w.mu.Unlock()
}

func (w *World) insertLocked(c *Chunk) {
	w.chunks[c.Key()] = c
	w.modCount++

	col := w.colIndex[c.coord]
	i := sort.Search(len(col), func(i int) bool { return col[i].yOffset >= c.yOffset })
	col = append(col, nil)
	copy(col[i+1:], col[i:])
	col[i] = c
	w.colIndex[c.coord] = col
}

func (w *World) removeLocked(c *Chunk) {
	delete(w.chunks, c.Key())
	w.modCount++

	col := w.colIndex[c.coord]
	for i, ch := range col {
		if ch == c {
			col = append(col[:i], col[i+1:]...)
			break
		}
	}
	if len(col) == 0 {
		delete(w.colIndex, c.coord)
	} else {
		w.colIndex[c.coord] = col
	}
}

// GetBlock returns the block id at world position p. Missing chunks read as air
// and are not created.
func (w *World) GetBlock(p Pos) BlockID {
	coord, yOffset, local := WorldToLocal(p)
	c := w.Chunk(coord, yOffset)
	if c == nil {
		return BlockAir
	}
	return c.BlockID(local.X, local.Y, local.Z)
}

// GetMeta returns the metadata at world position p; missing chunks read as zero.
func (w *World) GetMeta(p Pos) Meta {
	coord, yOffset, local := WorldToLocal(p)
	c := w.Chunk(coord, yOffset)
	if c == nil {
		return 0
	}
	return c.Meta(local.X, local.Y, local.Z)
}

// SetBlock writes id at world position p, creating the chunk if needed, and marks
// already-resident neighbours dirty when p lies on a chunk face.
func (w *World) SetBlock(p Pos, id BlockID) {
	coord, yOffset, local := WorldToLocal(p)
	c := w.GetOrCreateChunk(coord, yOffset)
	c.SetBlockID(local.X, local.Y, local.Z, id)
	w.markNeighborsDirty(coord, yOffset, local)
}

// SetMeta writes metadata at world position p with the same dirty propagation as SetBlock.
func (w *World) SetMeta(p Pos, m Meta) {
	coord, yOffset, local := WorldToLocal(p)
	c := w.GetOrCreateChunk(coord, yOffset)
	c.SetMeta(local.X, local.Y, local.Z, m)
	w.markNeighborsDirty(coord, yOffset, local)
}

// markNeighborsDirty checks each axis independently; a cell on a corner can
// touch up to three neighbours.
func (w *World) markNeighborsDirty(coord ChunkCoord, yOffset int, local Pos) {
	mark := func(dx, dy, dz int) {
		nb := w.Chunk(ChunkCoord{X: coord.X + dx, Z: coord.Z + dz}, yOffset+dy*ChunkHeight)
		if nb == nil {
			return
		}
		nb.MarkDirty()
		w.metrics.NeighborDirtied()
	}

	if local.X == 0 {
		mark(-1, 0, 0)
	} else if local.X == ChunkWidth-1 {
		mark(1, 0, 0)
	}
	if local.Y == 0 {
		mark(0, -1, 0)
	} else if local.Y == ChunkHeight-1 {
		mark(0, 1, 0)
	}
	if local.Z == 0 {
		mark(0, 0, -1)
	} else if local.Z == ChunkDepth-1 {
		mark(0, 0, 1)
	}
}

// DirtyFaceNeighbors marks every resident chunk sharing a face with key dirty,
// for bulk writes that bypass SetBlock. It returns how many were marked.
func (w *World) DirtyFaceNeighbors(key ChunkKey) int {
	n := 0
	for _, f := range Faces {
		off := f.Offset()
		nb := w.Chunk(ChunkCoord{X: key.X + off.X, Z: key.Z + off.Z}, key.Y+off.Y*ChunkHeight)
		if nb == nil {
			continue
		}
		nb.MarkDirty()
		w.metrics.NeighborDirtied()
		n++
	}
	return n
}

// IsSolid reports whether the block at p is solid according to the block registry.
func (w *World) IsSolid(p Pos) bool {
	return w.props.IsSolid(w.GetBlock(p))
}

// IsOpaque reports whether the block at p hides the faces behind it.
func (w *World) IsOpaque(p Pos) bool {
	return w.props.IsOpaque(w.GetBlock(p))
}

// IsInBounds reports whether p lies inside the logical world extents.
func IsInBounds(p Pos) bool {
	return p.X >= 0 && p.X < WorldWidth &&
		p.Z >= 0 && p.Z < WorldDepth &&
		p.Y >= WorldMinY && p.Y < WorldMaxY
}

func (w *World) IsInBounds(p Pos) bool {
	return IsInBounds(p)
}

// GetChunksInRadius returns every resident chunk, in all vertical bands, whose
// chunk cell lies within radius chunks of the cell containing center.
// Order is by x, then z, then yOffset.
func (w *World) GetChunksInRadius(center Pos, radius int) []*Chunk {
	if radius < 0 {
		return nil
	}
	defer w.metrics.Track("world.GetChunksInRadius")()
	cc := WorldToChunkCoord(center.X, center.Z)

	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []*Chunk
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			if col, ok := w.colIndex[ChunkCoord{X: cc.X + dx, Z: cc.Z + dz}]; ok {
				out = append(out, col...)
			}
		}
	}
	return out
}

// Chunks returns all resident chunks ordered by key.
func (w *World) Chunks() []*Chunk {
	w.mu.RLock()
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key(), out[j].Key()
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
	return out
}

// Len returns the number of resident chunks.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// ModCount returns the current modification count of the chunk map.
func (w *World) ModCount() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.modCount
}

// Clear drops all chunk state.
func (w *World) Clear() {
	w.mu.Lock()
	w.chunks = make(map[ChunkKey]*Chunk)
	w.colIndex = make(map[ChunkCoord][]*Chunk)
	w.modCount++
	w.mu.Unlock()
	w.log.Debug("world cleared", "world", w.id.String())
}
