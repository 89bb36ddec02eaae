package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"voxelworld/internal/world"
)

var (
	ErrDuplicateBlock = errors.New("duplicate block")
	ErrInvalidBlockID = errors.New("invalid block id")
	ErrUnnamedBlock   = errors.New("block has no name")
)

// Definition defines the properties of a block type
type Definition struct {
	ID        world.BlockID
	Name      string
	Opaque    bool // hides the faces of blocks behind it
	Solid     bool // collides and can be picked
	FaceTiles [world.FaceCount]int
	Hardness  float32
}

// Tiles builds a face tile table from top, side and bottom atlas tiles.
func Tiles(top, side, bottom int) [world.FaceCount]int {
	var t [world.FaceCount]int
	for _, f := range world.Faces {
		switch f {
		case world.FaceTop:
			t[f] = top
		case world.FaceBottom:
			t[f] = bottom
		default:
			t[f] = side
		}
	}
	return t
}

// Registry is an immutable block table. It is safe for concurrent use.
type Registry struct {
	defs  [int(world.MaxBlockID) + 1]*Definition
	names map[string]world.BlockID
	count int
}

// New builds a registry from defs. Ids must be unique and fit in a voxel; names must be unique.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{names: make(map[string]world.BlockID, len(defs))}
	for i := range defs {
		def := defs[i]
		if def.ID > world.MaxBlockID {
			return nil, fmt.Errorf("%w: %d (%s)", ErrInvalidBlockID, def.ID, def.Name)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("%w: id %d", ErrUnnamedBlock, def.ID)
		}
		if r.defs[def.ID] != nil {
			return nil, fmt.Errorf("%w: id %d registered as %q and %q", ErrDuplicateBlock, def.ID, r.defs[def.ID].Name, def.Name)
		}
		if _, ok := r.names[def.Name]; ok {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateBlock, def.Name)
		}
		r.defs[def.ID] = &def
		r.names[def.Name] = def.ID
		r.count++
	}
	return r, nil
}

// Default returns the built-in block table for every block constant in world.
// Tiles index a 16x16 atlas.
func Default() *Registry {
	r, err := New(defaultBlocks()...)
	if err != nil {
		panic(fmt.Sprintf("registry: default block table: %v", err))
	}
	return r
}

func defaultBlocks() []Definition {
	return []Definition{
		{ID: world.BlockAir, Name: "air"},
		{ID: world.BlockGrass, Name: "grass", Opaque: true, Solid: true, FaceTiles: Tiles(0, 3, 2), Hardness: 0.6},
		{ID: world.BlockDirt, Name: "dirt", Opaque: true, Solid: true, FaceTiles: Tiles(2, 2, 2), Hardness: 0.5},
		{ID: world.BlockStone, Name: "stone", Opaque: true, Solid: true, FaceTiles: Tiles(1, 1, 1), Hardness: 1.5},
		// Unbreakable
		{ID: world.BlockBedrock, Name: "bedrock", Opaque: true, Solid: true, FaceTiles: Tiles(17, 17, 17), Hardness: -1},
		{ID: world.BlockSand, Name: "sand", Opaque: true, Solid: true, FaceTiles: Tiles(18, 18, 18), Hardness: 0.5},
		{ID: world.BlockWater, Name: "water", FaceTiles: Tiles(205, 205, 205), Hardness: 100},
		{ID: world.BlockLava, Name: "lava", Opaque: true, FaceTiles: Tiles(237, 237, 237), Hardness: 100},
		{ID: world.BlockLog, Name: "log", Opaque: true, Solid: true, FaceTiles: Tiles(21, 20, 21), Hardness: 2},
		{ID: world.BlockLeaves, Name: "leaves", Solid: true, FaceTiles: Tiles(52, 52, 52), Hardness: 0.2},
		{ID: world.BlockCobblestone, Name: "cobblestone", Opaque: true, Solid: true, FaceTiles: Tiles(16, 16, 16), Hardness: 2},
		{ID: world.BlockPlanks, Name: "planks", Opaque: true, Solid: true, FaceTiles: Tiles(4, 4, 4), Hardness: 2},
	}
}

// Lookup returns the definition registered for id.
func (r *Registry) Lookup(id world.BlockID) (Definition, bool) {
	if r == nil || id > world.MaxBlockID || r.defs[id] == nil {
		return Definition{}, false
	}
	return *r.defs[id], true
}

// ByName returns the definition registered under name.
func (r *Registry) ByName(name string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	id, ok := r.names[name]
	if !ok {
		return Definition{}, false
	}
	return *r.defs[id], true
}

// Known reports whether id has a definition.
func (r *Registry) Known(id world.BlockID) bool {
	return r != nil && id <= world.MaxBlockID && r.defs[id] != nil
}

// IsOpaque reports whether id hides neighbouring faces. Unknown ids are not opaque.
func (r *Registry) IsOpaque(id world.BlockID) bool {
	if !r.Known(id) {
		return false
	}
	return r.defs[id].Opaque
}

// IsSolid reports whether id is solid. Unknown ids are not solid.
func (r *Registry) IsSolid(id world.BlockID) bool {
	if !r.Known(id) {
		return false
	}
	return r.defs[id].Solid
}

// FaceTile returns the atlas tile for a given block and face
func (r *Registry) FaceTile(id world.BlockID, face world.BlockFace) int {
	if !r.Known(id) || face < 0 || int(face) >= world.FaceCount {
		return 0 // Fallback
	}
	return r.defs[id].FaceTiles[face]
}

func (r *Registry) Hardness(id world.BlockID) float32 {
	if !r.Known(id) {
		return 0
	}
	return r.defs[id].Hardness
}

// Len returns the number of registered blocks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

// Definitions returns all definitions ordered by id.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, r.count)
	for _, d := range r.defs {
		if d != nil {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// blockFile is the YAML layout of a block table.
//
//	blocks:
//	  - id: 1
//	    name: grass
//	    opaque: true
//	    solid: true
//	    hardness: 0.6
//	    tiles: {top: 0, side: 3, bottom: 2}
type blockFile struct {
	Blocks []blockEntry `yaml:"blocks"`
}

type blockEntry struct {
	ID       int       `yaml:"id"`
	Name     string    `yaml:"name"`
	Opaque   bool      `yaml:"opaque"`
	Solid    bool      `yaml:"solid"`
	Hardness float32   `yaml:"hardness"`
	Tile     int       `yaml:"tile"`
	Tiles    tileEntry `yaml:"tiles"`
}

// tileEntry overrides the shared tile per face group or per face.
type tileEntry struct {
	Top    *int `yaml:"top"`
	Side   *int `yaml:"side"`
	Bottom *int `yaml:"bottom"`
	North  *int `yaml:"north"`
	South  *int `yaml:"south"`
	East   *int `yaml:"east"`
	West   *int `yaml:"west"`
}

func (e blockEntry) definition() (Definition, error) {
	if e.ID < 0 || e.ID > int(world.MaxBlockID) {
		return Definition{}, fmt.Errorf("%w: %d (%s)", ErrInvalidBlockID, e.ID, e.Name)
	}
	pick := func(v *int, fallback int) int {
		if v != nil {
			return *v
		}
		return fallback
	}
	side := pick(e.Tiles.Side, e.Tile)
	tiles := Tiles(pick(e.Tiles.Top, e.Tile), side, pick(e.Tiles.Bottom, e.Tile))
	tiles[world.FaceNorth] = pick(e.Tiles.North, side)
	tiles[world.FaceSouth] = pick(e.Tiles.South, side)
	tiles[world.FaceEast] = pick(e.Tiles.East, side)
	tiles[world.FaceWest] = pick(e.Tiles.West, side)

	return Definition{
		ID:        world.BlockID(e.ID),
		Name:      e.Name,
		Opaque:    e.Opaque,
		Solid:     e.Solid,
		FaceTiles: tiles,
		Hardness:  e.Hardness,
	}, nil
}

// Parse builds a registry from a YAML block table.
func Parse(data []byte) (*Registry, error) {
	var f blockFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse block table: %w", err)
	}
	defs := make([]Definition, 0, len(f.Blocks))
	for _, e := range f.Blocks {
		d, err := e.definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return New(defs...)
}

// Load reads a YAML block table from path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block table: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

var _ world.BlockProperties = (*Registry)(nil)
