package world

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelworld/internal/metrics"
)

// solidAll treats every non-air block as opaque and solid.
type solidAll struct{}

func (solidAll) IsOpaque(id BlockID) bool { return id != BlockAir }
func (solidAll) IsSolid(id BlockID) bool  { return id != BlockAir }

func TestWorldSetGetBlock(t *testing.T) {
	w := New(solidAll{})
	p := Pos{X: 100, Y: 40, Z: -7}

	assert.Equal(t, BlockAir, w.GetBlock(p))
	assert.Equal(t, 0, w.Len(), "reading must not create chunks")

	w.SetBlock(p, BlockStone)
	assert.Equal(t, BlockStone, w.GetBlock(p))
	assert.Equal(t, 1, w.Len())
	assert.True(t, w.IsSolid(p))
	assert.True(t, w.IsOpaque(p))
	assert.False(t, w.IsSolid(p.Add(Pos{Y: 1})))
}

func TestWorldGetBlockDoesNotAllocate(t *testing.T) {
	w := New(solidAll{})
	w.SetBlock(Pos{X: 1, Y: 1, Z: 1}, BlockStone)
	allocs := testing.AllocsPerRun(100, func() {
		_ = w.GetBlock(Pos{X: 500, Y: 10, Z: 500})
		_ = w.GetBlock(Pos{X: 1, Y: 1, Z: 1})
	})
	assert.Zero(t, allocs)
}

func TestWorldMetaPreserved(t *testing.T) {
	w := New(nil)
	p := Pos{X: 3, Y: 3, Z: 3}
	w.SetMeta(p, 12)
	w.SetBlock(p, BlockLog)
	assert.Equal(t, Meta(12), w.GetMeta(p))
	assert.Equal(t, BlockLog, w.GetBlock(p))
	assert.Equal(t, Meta(0), w.GetMeta(Pos{X: 900, Y: 3, Z: 3}))
}

func TestWorldNilPropertiesAreInert(t *testing.T) {
	w := New(nil)
	p := Pos{X: 1, Y: 1, Z: 1}
	w.SetBlock(p, BlockStone)
	assert.False(t, w.IsSolid(p))
	assert.False(t, w.IsOpaque(p))
}

func TestWorldGetOrCreateChunkIdempotent(t *testing.T) {
	m := metrics.New()
	w := New(nil, WithMetrics(m))

	var wg sync.WaitGroup
	got := make([]*Chunk, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 1}, 32)
		}(i)
	}
	wg.Wait()

	for _, c := range got {
		assert.Same(t, got[0], c)
	}
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChunksCreated))

	// misaligned offsets snap to their band
	assert.Same(t, got[0], w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 1}, 40))
}

func TestWorldBoundaryPropagation(t *testing.T) {
	w := New(solidAll{})
	left := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 0}, WorldMinY)
	right := w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 0}, WorldMinY)
	require.False(t, left.NeedsRemesh())
	require.False(t, right.NeedsRemesh())

	// interior edit leaves the neighbour clean
	w.SetBlock(Pos{X: 15, Y: 0, Z: 5}, BlockStone)
	assert.True(t, left.NeedsRemesh())
	assert.False(t, right.NeedsRemesh())

	left.ClearDirty()

	// edit on the +X face dirties the +X neighbour
	w.SetBlock(Pos{X: 31, Y: 0, Z: 5}, BlockStone)
	assert.True(t, left.NeedsRemesh())
	assert.True(t, right.NeedsRemesh())

	left.ClearDirty()
	right.ClearDirty()

	// and the -X face of the right chunk dirties the left one
	w.SetBlock(Pos{X: 32, Y: 0, Z: 5}, BlockStone)
	assert.True(t, left.NeedsRemesh())
	assert.True(t, right.NeedsRemesh())
}

func TestWorldBoundaryDoesNotCreateNeighbours(t *testing.T) {
	w := New(nil)
	w.SetBlock(Pos{X: 0, Y: WorldMinY, Z: 0}, BlockStone)
	assert.Equal(t, 1, w.Len())
}

func TestWorldCornerPropagation(t *testing.T) {
	m := metrics.New()
	w := New(nil, WithMetrics(m))
	origin := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 0}, 32)
	xNb := w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 0}, 32)
	yNb := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 0}, 96)
	zNb := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 1}, 32)
	diag := w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 1}, 32)

	w.SetBlock(Pos{X: 31, Y: 95, Z: 31}, BlockStone)

	assert.True(t, origin.NeedsRemesh())
	assert.True(t, xNb.NeedsRemesh())
	assert.True(t, yNb.NeedsRemesh())
	assert.True(t, zNb.NeedsRemesh())
	assert.False(t, diag.NeedsRemesh(), "only face neighbours are affected")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DirtyNeighbors))
}

func TestWorldVerticalPropagationAcrossBands(t *testing.T) {
	w := New(nil)
	lower := w.GetOrCreateChunk(ChunkCoord{}, WorldMinY)
	upper := w.GetOrCreateChunk(ChunkCoord{}, WorldMinY+ChunkHeight)

	w.SetBlock(Pos{X: 4, Y: WorldMinY + ChunkHeight, Z: 4}, BlockDirt)
	assert.True(t, lower.NeedsRemesh())
	assert.True(t, upper.NeedsRemesh())
}

func TestWorldChunksInRadius(t *testing.T) {
	w := New(nil)
	for x := 0; x < 6; x++ {
		for z := 0; z < 6; z++ {
			w.GetOrCreateChunk(ChunkCoord{X: x, Z: z}, WorldMinY)
		}
	}
	w.GetOrCreateChunk(ChunkCoord{X: 2, Z: 2}, 96)

	center := Pos{X: 2*ChunkWidth + 5, Y: 0, Z: 2*ChunkDepth + 5}

	got := w.GetChunksInRadius(center, 0)
	require.Len(t, got, 2)
	assert.Equal(t, WorldMinY, got[0].YOffset())
	assert.Equal(t, 96, got[1].YOffset())

	got = w.GetChunksInRadius(center, 1)
	// centre column has two bands plus four face neighbours
	assert.Len(t, got, 6)

	got = w.GetChunksInRadius(center, 2)
	// 13 cells inside a radius-2 circle, plus the upper band
	assert.Len(t, got, 14)
	for _, c := range got {
		dx, dz := c.Coord().X-2, c.Coord().Z-2
		assert.LessOrEqual(t, dx*dx+dz*dz, 4)
	}

	assert.Empty(t, w.GetChunksInRadius(center, -1))
	assert.Equal(t, got, w.GetChunksInRadius(center, 2), "order must be deterministic")
}

func TestWorldPutChunkAndClear(t *testing.T) {
	id := uuid.New()
	w := New(nil, WithID(id))
	assert.Equal(t, id, w.ID())

	c := NewChunk(ChunkCoord{X: 3, Z: 4}, 32)
	c.SetBlockID(0, 0, 0, BlockSand)
	w.PutChunk(c)
	assert.Equal(t, BlockSand, w.GetBlock(Pos{X: 96, Y: 32, Z: 128}))

	replacement := NewChunk(ChunkCoord{X: 3, Z: 4}, 32)
	w.PutChunk(replacement)
	assert.Equal(t, 1, w.Len())
	assert.Same(t, replacement, w.ChunkAt(Pos{X: 96, Y: 32, Z: 128}))
	assert.Len(t, w.GetChunksInRadius(Pos{X: 96, Y: 0, Z: 128}, 0), 1)

	before := w.ModCount()
	w.Clear()
	assert.Equal(t, 0, w.Len())
	assert.Greater(t, w.ModCount(), before)
	assert.Equal(t, BlockAir, w.GetBlock(Pos{X: 96, Y: 32, Z: 128}))
	assert.Empty(t, w.GetChunksInRadius(Pos{X: 96, Y: 0, Z: 128}, 3))
}

func TestWorldChunksOrdered(t *testing.T) {
	w := New(nil)
	w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 0}, WorldMinY)
	w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 1}, 32)
	w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 1}, WorldMinY)

	keys := make([]ChunkKey, 0, 3)
	for _, c := range w.Chunks() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []ChunkKey{{0, WorldMinY, 1}, {0, 32, 1}, {1, WorldMinY, 0}}, keys)
}

func TestIsInBounds(t *testing.T) {
	cases := []struct {
		p    Pos
		want bool
	}{
		{Pos{0, WorldMinY, 0}, true},
		{Pos{WorldWidth - 1, WorldMaxY - 1, WorldDepth - 1}, true},
		{Pos{-1, 0, 0}, false},
		{Pos{0, 0, WorldDepth}, false},
		{Pos{0, WorldMinY - 1, 0}, false},
		{Pos{0, WorldMaxY, 0}, false},
	}
	w := New(nil)
	for _, c := range cases {
		assert.Equal(t, c.want, w.IsInBounds(c.p), "%v", c.p)
	}
}

func TestWorldDirtyFaceNeighbors(t *testing.T) {
	w := New(nil)
	center := w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 1}, 32)
	below := w.GetOrCreateChunk(ChunkCoord{X: 1, Z: 1}, WorldMinY)
	west := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 1}, 32)
	diag := w.GetOrCreateChunk(ChunkCoord{X: 0, Z: 0}, 32)

	assert.Equal(t, 2, w.DirtyFaceNeighbors(center.Key()))
	assert.False(t, center.NeedsRemesh())
	assert.True(t, below.NeedsRemesh())
	assert.True(t, west.NeedsRemesh())
	assert.False(t, diag.NeedsRemesh())
}
