package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelworld/internal/registry"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

func backends(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"badger": func() Store {
			s, err := OpenBadgerInMemory()
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreChunkRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			id := uuid.New()
			key := world.ChunkKey{X: -2, Y: 32, Z: 7}
			rec := Record{Data: []byte{1, 2, 3, 4}, Generated: true}

			_, err := s.LoadChunk(ctx, id, key)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveChunk(ctx, id, key, rec))
			got, err := s.LoadChunk(ctx, id, key)
			require.NoError(t, err)
			assert.Equal(t, rec, got)

			// overwrite, including the generated flag
			require.NoError(t, s.SaveChunk(ctx, id, key, Record{Data: []byte{9}}))
			got, err = s.LoadChunk(ctx, id, key)
			require.NoError(t, err)
			assert.Equal(t, Record{Data: []byte{9}}, got)

			// other worlds are isolated
			_, err = s.LoadChunk(ctx, uuid.New(), key)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			a, b := uuid.New(), uuid.New()
			keys := []world.ChunkKey{{X: 1, Y: 32, Z: 0}, {X: 0, Y: -32, Z: 5}, {X: 0, Y: -32, Z: -1}, {X: 1, Y: -32, Z: 0}}
			for _, k := range keys {
				require.NoError(t, s.SaveChunk(ctx, a, k, Record{Data: []byte{1}, Generated: true}))
			}
			require.NoError(t, s.SaveChunk(ctx, b, world.ChunkKey{}, Record{Data: []byte{2}}))

			got, err := s.ListChunks(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, []world.ChunkKey{
				{X: 0, Y: -32, Z: -1},
				{X: 0, Y: -32, Z: 5},
				{X: 1, Y: -32, Z: 0},
				{X: 1, Y: 32, Z: 0},
			}, got)

			require.NoError(t, s.DeleteWorld(ctx, a))
			got, err = s.ListChunks(ctx, a)
			require.NoError(t, err)
			assert.Empty(t, got)

			// a chunk saved again after the delete starts without the old flag
			require.NoError(t, s.SaveChunk(ctx, a, keys[0], Record{Data: []byte{3}}))
			rec, err := s.LoadChunk(ctx, a, keys[0])
			require.NoError(t, err)
			assert.False(t, rec.Generated)

			got, err = s.ListChunks(ctx, b)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			require.NoError(t, s.Close())
			require.NoError(t, s.Close())

			assert.ErrorIs(t, s.SaveChunk(ctx, uuid.New(), world.ChunkKey{}, Record{}), ErrClosed)
			_, err := s.LoadChunk(ctx, uuid.New(), world.ChunkKey{})
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestSaveLoadWorld(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			reg := registry.Default()
			src := world.New(reg)
			src.SetBlock(world.Pos{X: 1, Y: 2, Z: 3}, world.BlockStone)
			src.SetMeta(world.Pos{X: 1, Y: 2, Z: 3}, 7)
			src.SetBlock(world.Pos{X: -40, Y: 100, Z: 64}, world.BlockLog)
			src.ChunkAt(world.Pos{X: 1, Y: 2, Z: 3}).MarkGenerated()

			n, err := SaveWorld(ctx, s, src)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			dst := world.New(reg, world.WithID(src.ID()))
			n, err = LoadWorld(ctx, s, dst)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			assert.Equal(t, world.BlockStone, dst.GetBlock(world.Pos{X: 1, Y: 2, Z: 3}))
			assert.Equal(t, world.Meta(7), dst.GetMeta(world.Pos{X: 1, Y: 2, Z: 3}))
			assert.Equal(t, world.BlockLog, dst.GetBlock(world.Pos{X: -40, Y: 100, Z: 64}))
			assert.True(t, dst.ChunkAt(world.Pos{X: 1, Y: 2, Z: 3}).Generated())
			assert.False(t, dst.ChunkAt(world.Pos{X: -40, Y: 100, Z: 64}).Generated())
			for _, c := range dst.Chunks() {
				assert.True(t, c.NeedsRemesh())
			}

			// a different world id sees nothing
			other := world.New(reg)
			n, err = LoadWorld(ctx, s, other)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestLoadIntoMalformed(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			w := world.New(nil)
			key := world.ChunkKey{X: 0, Y: world.WorldMinY, Z: 0}
			require.NoError(t, s.SaveChunk(ctx, w.ID(), key, Record{Data: make([]byte, 10), Generated: true}))

			err := LoadInto(ctx, s, w, key)
			require.ErrorIs(t, err, world.ErrMalformedBuffer)
			assert.Zero(t, w.Len())

			_, err = LoadWorld(ctx, s, w)
			assert.ErrorIs(t, err, world.ErrMalformedBuffer)

			err = LoadInto(ctx, s, w, world.ChunkKey{Y: 5})
			assert.Error(t, err)

			err = LoadInto(ctx, s, w, world.ChunkKey{X: 9, Y: 32})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBadgerOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "world")
	id := uuid.New()

	s, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveChunk(ctx, id, world.ChunkKey{X: 3, Y: 96, Z: 4}, Record{Data: []byte("abc"), Generated: true}))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadChunk(ctx, id, world.ChunkKey{X: 3, Y: 96, Z: 4})
	require.NoError(t, err)
	assert.Equal(t, Record{Data: []byte("abc"), Generated: true}, got)
}

func TestSQLiteOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "world.sqlite")
	id := uuid.New()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveChunk(ctx, id, world.ChunkKey{X: 1, Y: -32, Z: 1}, Record{Data: []byte("xyz")}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	keys, err := s.ListChunks(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []world.ChunkKey{{X: 1, Y: -32, Z: 1}}, keys)

	_, err = OpenSQLite("")
	assert.Error(t, err)
}

// Chunks that only caught leaves from a neighbouring tree must still be
// filled with terrain after a reload.
func TestReloadedWorldRegeneratesPartialChunks(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			reg := registry.Default()
			settings := terrain.NewWorldSettings(12345, terrain.BiomeBalanced)
			settings.Trees = 1
			center := world.Pos{X: 512, Z: 512}

			src := world.New(reg)
			terrain.New(src, settings).GenerateAroundPosition(center, 1)
			// a canopy spilling into a chunk outside the generated square
			leafPos := world.Pos{X: 20*world.ChunkWidth + 5, Y: 150, Z: 20*world.ChunkDepth + 5}
			src.SetBlock(leafPos, world.BlockLeaves)

			partial := 0
			for _, c := range src.Chunks() {
				if !c.Generated() {
					partial++
				}
			}
			require.Positive(t, partial)

			_, err := SaveWorld(ctx, s, src)
			require.NoError(t, err)

			dst := world.New(reg, world.WithID(src.ID()))
			_, err = LoadWorld(ctx, s, dst)
			require.NoError(t, err)
			require.False(t, dst.ChunkAt(leafPos).Generated())

			gen := terrain.New(dst, settings)
			gen.GenerateAroundPosition(center, 2)
			gen.GenerateAroundPosition(leafPos, 0)

			cc := world.WorldToChunkCoord(center.X, center.Z)
			leafCoord := world.WorldToChunkCoord(leafPos.X, leafPos.Z)
			for _, c := range dst.Chunks() {
				co := c.Coord()
				inSquare := abs(co.X-cc.X) <= 2 && abs(co.Z-cc.Z) <= 2
				if !inSquare && co != leafCoord {
					continue // leaves spilled past the generated area
				}
				require.True(t, c.Generated(), "%s", c.Key())
				if c.YOffset() != world.WorldMinY {
					continue
				}
				for x := 0; x < world.ChunkWidth; x++ {
					for z := 0; z < world.ChunkDepth; z++ {
						require.Equal(t, world.BlockBedrock, c.BlockID(x, 0, z), "%s (%d,%d)", c.Key(), x, z)
					}
				}
			}
			assert.Equal(t, world.BlockLeaves, dst.GetBlock(leafPos))
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSaveLoadWorldUseWorldLogger(t *testing.T) {
	ctx := context.Background()
	s, err := OpenBadgerInMemory()
	require.NoError(t, err)
	defer s.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	w := world.New(registry.Default(), world.WithLogger(log))
	w.SetBlock(world.Pos{X: 1, Y: 1, Z: 1}, world.BlockDirt)

	_, err = SaveWorld(ctx, s, w)
	require.NoError(t, err)
	_, err = LoadWorld(ctx, s, w)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "world saved")
	assert.Contains(t, out, "world loaded")
	assert.Contains(t, out, w.ID().String())
}
