package meshing

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"voxelworld/internal/metrics"
	"voxelworld/internal/world"
)

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + uv)
const VertexStride = 8

// DefaultAtlasSize is the number of tiles along each side of the texture atlas.
const DefaultAtlasSize = 16

// TileSource is the part of the block registry the mesher needs.
type TileSource interface {
	Known(id world.BlockID) bool
	IsOpaque(id world.BlockID) bool
	FaceTile(id world.BlockID, face world.BlockFace) int
}

// Mesh is the renderable surface of one chunk. Positions are world-space.
type Mesh struct {
	Coord   world.ChunkCoord
	YOffset int
	Version uint64 // chunk version the mesh was built from

	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
	Faces     int
}

// Interleaved packs the vertices as pos+normal+uv for a single vertex buffer.
func (m *Mesh) Interleaved() []float32 {
	if m == nil {
		return nil
	}
	out := make([]float32, 0, len(m.Positions)*VertexStride)
	for i, p := range m.Positions {
		n, uv := m.Normals[i], m.UVs[i]
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	return out
}

// Mesher turns chunks into one quad per visible voxel face.
type Mesher struct {
	tiles     TileSource
	atlasSize int
	log       *slog.Logger
	metrics   *metrics.Metrics
}

type MesherOption func(*Mesher)

func WithLogger(l *slog.Logger) MesherOption {
	return func(m *Mesher) {
		if l != nil {
			m.log = l
		}
	}
}

func WithMetrics(mt *metrics.Metrics) MesherOption {
	return func(m *Mesher) { m.metrics = mt }
}

// NewMesher creates a mesher. A non-positive atlasSize selects DefaultAtlasSize.
func NewMesher(tiles TileSource, atlasSize int, opts ...MesherOption) *Mesher {
	if atlasSize <= 0 {
		atlasSize = DefaultAtlasSize
	}
	m := &Mesher{
		tiles:     tiles,
		atlasSize: atlasSize,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mesher) AtlasSize() int { return m.atlasSize }

// Corner offsets per face, counter-clockwise seen from outside the block.
var faceCorners = [world.FaceCount][4]mgl32.Vec3{
	world.FaceNorth:  {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	world.FaceSouth:  {{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	world.FaceEast:   {{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	world.FaceWest:   {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	world.FaceTop:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	world.FaceBottom: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
}

var faceNormals = [world.FaceCount]mgl32.Vec3{
	world.FaceNorth:  {0, 0, 1},
	world.FaceSouth:  {0, 0, -1},
	world.FaceEast:   {1, 0, 0},
	world.FaceWest:   {-1, 0, 0},
	world.FaceTop:    {0, 1, 0},
	world.FaceBottom: {0, -1, 0},
}

// TileUV returns the atlas rectangle of tile t in an atlasSize x atlasSize grid.
func TileUV(tile, atlasSize int) (u0, v0, u1, v1 float32) {
	if atlasSize <= 0 {
		atlasSize = DefaultAtlasSize
	}
	a := float32(atlasSize)
	col := float32(tile % atlasSize)
	row := float32(tile / atlasSize)
	return col / a, row / a, (col + 1) / a, (row + 1) / a
}

// CreateChunkMesh builds the visible surface of c. Neighbours outside the chunk
// are resolved through w. It returns (nil, false) when no face is visible.
// Either way the chunk's dirty flag is cleared unless it was edited meanwhile.
func (m *Mesher) CreateChunkMesh(c *world.Chunk, w *world.World) (*Mesh, bool) {
	if c == nil {
		return nil, false
	}
	defer m.metrics.Track("meshing.CreateChunkMesh")()

	voxels, version := c.Snapshot()
	origin := c.Origin()
	mesh := &Mesh{
		Coord:   c.Coord(),
		YOffset: c.YOffset(),
		Version: version,
	}

	for y := 0; y < world.ChunkHeight; y++ {
		for z := 0; z < world.ChunkDepth; z++ {
			for x := 0; x < world.ChunkWidth; x++ {
				id := world.SnapshotBlock(voxels, x, y, z)
				if id == world.BlockAir || !m.tiles.Known(id) {
					continue
				}
				for _, f := range world.Faces {
					off := f.Offset()
					nx, ny, nz := x+off.X, y+off.Y, z+off.Z
					var nb world.BlockID
					if nx >= 0 && nx < world.ChunkWidth && ny >= 0 && ny < world.ChunkHeight && nz >= 0 && nz < world.ChunkDepth {
						nb = world.SnapshotBlock(voxels, nx, ny, nz)
					} else if w != nil {
						nb = w.GetBlock(origin.Add(world.Pos{X: nx, Y: ny, Z: nz}))
					}
					if m.tiles.IsOpaque(nb) {
						continue
					}
					m.addFace(mesh, origin.Add(world.Pos{X: x, Y: y, Z: z}), f, m.tiles.FaceTile(id, f))
				}
			}
		}
	}

	if !c.ClearDirtyAt(version) {
		m.log.Debug("chunk edited during rebuild", "chunk", c.Key().String())
	}
	m.metrics.MeshBuilt(mesh.Faces)
	if mesh.Faces == 0 {
		return nil, false
	}
	return mesh, true
}

func (m *Mesher) addFace(mesh *Mesh, p world.Pos, f world.BlockFace, tile int) {
	base := uint32(len(mesh.Positions))
	bp := mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	u0, v0, u1, v1 := TileUV(tile, m.atlasSize)
	uvs := [4]mgl32.Vec2{{u0, v1}, {u1, v1}, {u1, v0}, {u0, v0}}

	for i, corner := range faceCorners[f] {
		mesh.Positions = append(mesh.Positions, bp.Add(corner))
		mesh.Normals = append(mesh.Normals, faceNormals[f])
		mesh.UVs = append(mesh.UVs, uvs[i])
	}
	// Triangle 1: v0,v1,v2 - Triangle 2: v2,v3,v0
	mesh.Indices = append(mesh.Indices, base, base+1, base+2, base+2, base+3, base)
	mesh.Faces++
}
