package terrain

import (
	"log/slog"

	"voxelworld/internal/metrics"
	"voxelworld/internal/world"
)

const (
	// bedrockLayers is how many cells above WorldMinY are always bedrock.
	bedrockLayers = 2
	// lavaCeiling is the first y at which lava can no longer replace stone.
	lavaCeiling = -10

	// The lava field peaks a little below 0.8, so the threshold runs from
	// lavaThresholdMax at zero pockets down by lavaThresholdSpan at full pockets.
	lavaThresholdMax  = 0.75
	lavaThresholdSpan = 0.55
)

// Generator handles terrain generation logic for one world.
type Generator struct {
	world    *world.World
	settings WorldSettings
	fields   *fields
	log      *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Generator)

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// New binds a generator to w. Settings are clamped and copied; the same
// settings and world always generate the same blocks.
func New(w *world.World, settings WorldSettings, opts ...Option) *Generator {
	settings = settings.Clamped()
	g := &Generator{
		world:    w,
		settings: settings,
		fields:   newFields(settings.Seed),
		log:      slog.Default(),
		metrics:  w.Metrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Settings() WorldSettings { return g.settings }

func (g *Generator) World() *world.World { return g.world }

// HeightAt computes world surface height (block Y) at world X,Z.
func (g *Generator) HeightAt(x, z int) int {
	low, mid, high := g.fields.heightSamples(x, z)
	h := mixHeight(g.settings, low, mid, high)
	if g.settings.Surprises {
		h += spire(g.fields.detailAt(x, z))
	}
	return clampSurface(h)
}

// blockAt returns the terrain block at y in a column whose surface is at surface.
func (g *Generator) blockAt(x, y, z, surface int) world.BlockID {
	switch {
	case y-world.WorldMinY < bedrockLayers:
		return world.BlockBedrock
	case y < surface:
		if y < lavaCeiling && g.isLava(x, y, z) {
			return world.BlockLava
		}
		return world.BlockStone
	case y == surface:
		if surface > world.SeaLevel {
			return world.BlockGrass
		}
		return world.BlockStone
	default:
		return world.BlockAir
	}
}

// isLava reports whether the lava field passes its threshold.
func (g *Generator) isLava(x, y, z int) bool {
	if g.settings.LavaPockets <= 0 {
		return false
	}
	threshold := lavaThresholdMax - lavaThresholdSpan*g.settings.LavaPockets
	return g.fields.lavaAt(x, y, z) > threshold
}

// GenerateChunk fills c with terrain and places trees rooted in it. Only
// non-air cells are written so blocks already placed by neighbouring trees survive.
func (g *Generator) GenerateChunk(c *world.Chunk) {
	if c == nil {
		return
	}
	defer g.metrics.Track("terrain.GenerateChunk")()

	origin := c.Origin()
	var surfaces [world.ChunkWidth][world.ChunkDepth]int
	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkDepth; lz++ {
			wx, wz := origin.X+lx, origin.Z+lz
			h := g.HeightAt(wx, wz)
			surfaces[lx][lz] = h
			for ly := 0; ly < world.ChunkHeight; ly++ {
				y := origin.Y + ly
				if y > h {
					break
				}
				if id := g.blockAt(wx, y, wz, h); id != world.BlockAir {
					c.SetBlockID(lx, ly, lz, id)
				}
			}
		}
	}

	trees := 0
	for lx := 0; lx < world.ChunkWidth; lx++ {
		for lz := 0; lz < world.ChunkDepth; lz++ {
			h := surfaces[lx][lz]
			if h < origin.Y || h >= origin.Y+world.ChunkHeight || h <= world.SeaLevel {
				continue
			}
			if g.maybeTree(origin.X+lx, h, origin.Z+lz) {
				trees++
			}
		}
	}

	c.MarkGenerated()
	g.world.DirtyFaceNeighbors(c.Key())
	g.metrics.ChunkGenerated()
	g.log.Debug("chunk generated", "chunk", c.Key().String(), "trees", trees)
}

// Bands lists the yOffset of every chunk band covering [WorldMinY, WorldMaxY).
func Bands() []int {
	bands := make([]int, 0, (world.WorldMaxY-world.WorldMinY)/world.ChunkHeight)
	for y := world.WorldMinY; y < world.WorldMaxY; y += world.ChunkHeight {
		bands = append(bands, y)
	}
	return bands
}

// GenerateAroundPosition generates every band of every chunk cell within
// radius (a square) of the cell containing center, limited to the world grid.
// Chunks already generated are skipped. It returns the number generated.
func (g *Generator) GenerateAroundPosition(center world.Pos, radius int) int {
	if radius < 0 {
		return 0
	}
	defer g.metrics.Track("terrain.GenerateAroundPosition")()

	cc := world.WorldToChunkCoord(center.X, center.Z)
	x0, x1 := max(cc.X-radius, 0), min(cc.X+radius, world.GridChunksX-1)
	z0, z1 := max(cc.Z-radius, 0), min(cc.Z+radius, world.GridChunksZ-1)

	generated := 0
	for cx := x0; cx <= x1; cx++ {
		for cz := z0; cz <= z1; cz++ {
			for _, band := range Bands() {
				c := g.world.GetOrCreateChunk(world.ChunkCoord{X: cx, Z: cz}, band)
				if c.Generated() {
					continue
				}
				g.GenerateChunk(c)
				generated++
			}
		}
	}
	g.log.Info("generated around position", "center", center.String(), "radius", radius, "generated", generated)
	return generated
}
