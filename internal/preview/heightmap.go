package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"voxelworld/internal/registry"
	"voxelworld/internal/world"
)

// Blocks resolves block ids to definitions. *registry.Registry satisfies it.
type Blocks interface {
	Lookup(id world.BlockID) (registry.Definition, bool)
}

var palette = map[string]color.RGBA{
	"grass":       {R: 95, G: 159, B: 53, A: 255},
	"dirt":        {R: 134, G: 96, B: 67, A: 255},
	"stone":       {R: 125, G: 125, B: 125, A: 255},
	"cobblestone": {R: 110, G: 110, B: 110, A: 255},
	"bedrock":     {R: 40, G: 40, B: 40, A: 255},
	"sand":        {R: 219, G: 207, B: 163, A: 255},
	"water":       {R: 48, G: 92, B: 222, A: 255},
	"lava":        {R: 230, G: 90, B: 20, A: 255},
	"log":         {R: 102, G: 81, B: 51, A: 255},
	"leaves":      {R: 48, G: 110, B: 30, A: 255},
	"planks":      {R: 162, G: 130, B: 78, A: 255},
}

var (
	unknownColor = color.RGBA{R: 200, G: 0, B: 200, A: 255}
	voidColor    = color.RGBA{A: 255}
	seaColor     = color.RGBA{R: 48, G: 92, B: 222, A: 255}
)

// Column is the highest non-air block of one world column.
type Column struct {
	Y  int
	ID world.BlockID
	Ok bool
}

// TopBlock finds the highest non-air block at (x, z) among resident chunks.
func TopBlock(w *world.World, x, z int) Column {
	coord := world.WorldToChunkCoord(x, z)
	lx, lz := world.EuclidMod(x, world.ChunkWidth), world.EuclidMod(z, world.ChunkDepth)
	for band := world.ChunkYOffset(world.WorldMaxY - 1); band >= world.WorldMinY; band -= world.ChunkHeight {
		c := w.Chunk(coord, band)
		if c == nil {
			continue
		}
		for ly := world.ChunkHeight - 1; ly >= 0; ly-- {
			if id := c.BlockID(lx, ly, lz); id != world.BlockAir {
				return Column{Y: band + ly, ID: id, Ok: true}
			}
		}
	}
	return Column{}
}

// shade darkens low columns and brightens high ones.
func shade(c color.RGBA, y int) color.RGBA {
	f := 0.6 + 0.6*float64(y-world.WorldMinY)/float64(world.WorldMaxY-world.WorldMinY)
	scale := func(v uint8) uint8 {
		return uint8(min(255, float64(v)*f))
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: 255}
}

// blend mixes a and b by t in [0,1].
func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// ColumnColor returns the preview colour of a column.
func ColumnColor(blocks Blocks, col Column) color.RGBA {
	if !col.Ok {
		return voidColor
	}
	base := unknownColor
	if def, ok := blocks.Lookup(col.ID); ok {
		if c, ok := palette[def.Name]; ok {
			base = c
		}
	}
	c := shade(base, col.Y)
	if col.Y <= world.SeaLevel && col.ID != world.BlockWater && col.ID != world.BlockLava {
		// submerged: tint towards water, deeper is bluer
		depth := float64(world.SeaLevel-col.Y+1) / float64(world.SeaLevel-world.WorldMinY+1)
		c = blend(c, seaColor, 0.45+0.45*depth)
	}
	return c
}

// Heightmap renders a top-down view of region (X horizontally, Z vertically,
// both in world blocks), each column upscaled to scale x scale pixels.
func Heightmap(w *world.World, blocks Blocks, region image.Rectangle, scale int) *image.RGBA {
	defer w.Metrics().Track("preview.Heightmap")()
	region = region.Canon()
	src := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for z := region.Min.Y; z < region.Max.Y; z++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			src.SetRGBA(x-region.Min.X, z-region.Min.Y, ColumnColor(blocks, TopBlock(w, x, z)))
		}
	}
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx()*scale, region.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ChunkRegion returns the world rectangle covering the chunk cells within
// radius of the cell containing center, clipped to the world.
func ChunkRegion(center world.Pos, radius int) image.Rectangle {
	cc := world.WorldToChunkCoord(center.X, center.Z)
	r := image.Rect(
		(cc.X-radius)*world.ChunkWidth, (cc.Z-radius)*world.ChunkDepth,
		(cc.X+radius+1)*world.ChunkWidth, (cc.Z+radius+1)*world.ChunkDepth,
	)
	return r.Intersect(image.Rect(0, 0, world.WorldWidth, world.WorldDepth))
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}
