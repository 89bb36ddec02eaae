package world

// BlockID identifies a block type. Only the low 10 bits are stored in a voxel.
type BlockID uint16

// Meta is the 6-bit per-cell auxiliary value.
type Meta uint8

const (
	idBits   = 10
	metaBits = 6

	idMask   = 1<<idBits - 1
	metaMask = 1<<metaBits - 1

	// MaxBlockID is the largest id a voxel can hold.
	MaxBlockID BlockID = idMask
	// MaxMeta is the largest metadata value a voxel can hold.
	MaxMeta Meta = metaMask
)

const (
	BlockAir BlockID = iota
	BlockGrass
	BlockDirt
	BlockStone
	BlockBedrock
	BlockSand
	BlockWater
	BlockLava
	BlockLog
	BlockLeaves
	BlockCobblestone
	BlockPlanks
)

// Voxel is one packed cell: bits 0-9 hold the block id, bits 10-15 the metadata.
type Voxel uint16

// PackVoxel combines id and meta; bits outside either field are dropped.
func PackVoxel(id BlockID, meta Meta) Voxel {
	return Voxel(uint16(id)&idMask | (uint16(meta)&metaMask)<<idBits)
}

func (v Voxel) ID() BlockID {
	return BlockID(uint16(v) & idMask)
}

func (v Voxel) Meta() Meta {
	return Meta(uint16(v) >> idBits)
}

// WithID replaces the id bits and keeps the metadata.
func (v Voxel) WithID(id BlockID) Voxel {
	return PackVoxel(id, v.Meta())
}

// WithMeta replaces the metadata bits and keeps the id.
func (v Voxel) WithMeta(m Meta) Voxel {
	return PackVoxel(v.ID(), m)
}

// BlockProperties answers the two questions World needs from the block registry.
// Unknown ids must report false for both.
type BlockProperties interface {
	IsOpaque(id BlockID) bool
	IsSolid(id BlockID) bool
}

// BlockFace identifies a face of a block
type BlockFace int

const (
	FaceNorth BlockFace = iota // +Z
	FaceSouth                  // -Z
	FaceEast                   // +X
	FaceWest                   // -X
	FaceTop                    // +Y
	FaceBottom                 // -Y
)

// FaceCount is the number of faces on a block.
const FaceCount = 6

// Faces lists every face in enum order.
var Faces = [FaceCount]BlockFace{FaceNorth, FaceSouth, FaceEast, FaceWest, FaceTop, FaceBottom}

var faceOffsets = [FaceCount]Pos{
	FaceNorth:  {0, 0, 1},
	FaceSouth:  {0, 0, -1},
	FaceEast:   {1, 0, 0},
	FaceWest:   {-1, 0, 0},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
}

// Offset returns the unit step towards the neighbour sharing this face.
func (f BlockFace) Offset() Pos {
	if f < 0 || int(f) >= FaceCount {
		return Pos{}
	}
	return faceOffsets[f]
}

func (f BlockFace) String() string {
	switch f {
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	default:
		return "unknown"
	}
}
