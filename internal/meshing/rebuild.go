package meshing

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"voxelworld/internal/world"
)

var errNilChunk = errors.New("meshing: nil chunk")

// RebuildDirty remeshes every chunk in chunks that needs it, using at most
// workers goroutines (runtime.NumCPU when workers <= 0). Results follow the
// order of chunks; clean chunks are skipped.
func RebuildDirty(ctx context.Context, m *Mesher, w *world.World, chunks []*world.Chunk, workers int) ([]MeshResult, error) {
	defer m.metrics.Track("meshing.RebuildDirty")()
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	dirty := make([]*world.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c != nil && c.NeedsRemesh() {
			dirty = append(dirty, c)
		}
	}

	results := make([]MeshResult, len(dirty))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range dirty {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mesh, ok := m.CreateChunkMesh(c, w)
			results[i] = MeshResult{Key: c.Key(), Mesh: mesh, Empty: !ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	faces := 0
	for _, r := range results {
		if r.Mesh != nil {
			faces += r.Mesh.Faces
		}
	}
	m.log.Debug("rebuilt dirty chunks", "chunks", len(results), "faces", faces)
	return results, nil
}
