package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"voxelworld/internal/physics"
	"voxelworld/internal/registry"
	"voxelworld/internal/world"
)

func TestCollides(t *testing.T) {
	w := world.New(registry.Default())
	w.SetBlock(world.Pos{X: 0, Y: 0, Z: 0}, world.BlockStone)

	// standing on top of the block
	assert.False(t, physics.Collides(mgl32.Vec3{0.5, 1, 0.5}, 1.8, w))
	// sunk into it
	assert.True(t, physics.Collides(mgl32.Vec3{0.5, 0.5, 0.5}, 1.8, w))
	// overlapping its side
	assert.True(t, physics.Collides(mgl32.Vec3{1.2, 0.2, 0.5}, 1.8, w))
	assert.False(t, physics.Collides(mgl32.Vec3{1.31, 0.2, 0.5}, 1.8, w))

	// leaves are solid, water is not
	w.SetBlock(world.Pos{X: 5, Y: 0, Z: 5}, world.BlockWater)
	assert.False(t, physics.Collides(mgl32.Vec3{5.5, 0, 5.5}, 1.8, w))
}

func TestFindGroundLevel(t *testing.T) {
	w := world.New(registry.Default())
	w.SetBlock(world.Pos{X: 0, Y: 3, Z: 0}, world.BlockStone)
	w.SetBlock(world.Pos{X: 0, Y: 7, Z: 0}, world.BlockStone)

	ground, ok := physics.FindGroundLevel(0.5, 0.5, 6, w)
	assert.True(t, ok)
	assert.Equal(t, float32(4), ground)

	ground, ok = physics.FindGroundLevel(0.5, 0.5, 20, w)
	assert.True(t, ok)
	assert.Equal(t, float32(8), ground)

	_, ok = physics.FindGroundLevel(50.5, 50.5, 20, w)
	assert.False(t, ok)
}
