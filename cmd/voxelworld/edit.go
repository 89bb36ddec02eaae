package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/meshing"
	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
	"voxelworld/internal/world"
)

// eyeHeight is the camera height above the feet of a standing viewer.
const eyeHeight = 1.62

// pickAction is a parsed -pick flag: "break" or "place=<block name>".
type pickAction struct {
	place bool
	block world.BlockID
}

func parsePick(s string, blocks *registry.Registry) (pickAction, error) {
	if s == "break" {
		return pickAction{}, nil
	}
	name, ok := strings.CutPrefix(s, "place=")
	if !ok {
		return pickAction{}, fmt.Errorf("pick %q: want break or place=<block>", s)
	}
	def, ok := blocks.ByName(name)
	if !ok {
		return pickAction{}, fmt.Errorf("pick %q: unknown block %q", s, name)
	}
	return pickAction{place: true, block: def.ID}, nil
}

// parseVec3 parses "x,y,z".
func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("vector %q: want x,y,z", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// applyPick casts a ray from eye along look and edits what it hits. It
// returns the edited position and false when nothing was in reach.
func applyPick(w *world.World, eye, look mgl32.Vec3, act pickAction) (world.Pos, bool) {
	hit := physics.Raycast(eye, look, physics.MinReachDistance, physics.MaxReachDistance, w)
	if !hit.Hit {
		return world.Pos{}, false
	}
	if !act.place {
		w.SetBlock(hit.HitPosition, world.BlockAir)
		return hit.HitPosition, true
	}
	target := hit.AdjacentPosition
	if !w.IsInBounds(target) || w.IsSolid(target) {
		return world.Pos{}, false
	}
	w.SetBlock(target, act.block)
	return target, true
}

// remeshDirty feeds the dirty chunks around center through a mesh worker pool
// and returns how many meshes came back.
func remeshDirty(ctx context.Context, mesher *meshing.Mesher, w *world.World, center world.Pos, radius, workers int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var dirty []*world.Chunk
	for _, c := range w.GetChunksInRadius(center, radius) {
		if c.NeedsRemesh() {
			dirty = append(dirty, c)
		}
	}
	if len(dirty) == 0 {
		return 0, nil
	}

	pool := meshing.NewWorkerPool(mesher, w, max(workers, 1), len(dirty))
	defer pool.Shutdown()

	results := make(chan meshing.MeshResult, len(dirty))
	for _, c := range dirty {
		if err := pool.SubmitJobBlocking(ctx, meshing.MeshJob{Chunk: c, ResultChan: results}); err != nil {
			return 0, err
		}
	}
	for range dirty {
		select {
		case r := <-results:
			if r.Error != nil {
				return 0, r.Error
			}
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return len(dirty), nil
}
