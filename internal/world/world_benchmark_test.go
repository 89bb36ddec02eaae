package world

import (
	"testing"
)

// Benchmark radius queries over a populated grid
func BenchmarkChunksInRadius(b *testing.B) {
	w := New(nil)
	for x := 0; x < GridChunksX; x++ {
		for z := 0; z < GridChunksZ; z++ {
			w.GetOrCreateChunk(ChunkCoord{X: x, Z: z}, WorldMinY)
		}
	}
	center := Pos{X: WorldWidth / 2, Y: 0, Z: WorldDepth / 2}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.GetChunksInRadius(center, 8)
	}
}

func BenchmarkSetBlock(b *testing.B) {
	w := New(nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.SetBlock(Pos{X: i % 64, Y: (i / 64) % 64, Z: 7}, BlockStone)
	}
}

func BenchmarkGetBlock(b *testing.B) {
	w := New(nil)
	w.GetOrCreateChunk(ChunkCoord{}, WorldMinY).Fill(BlockStone)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.GetBlock(Pos{X: i % 32, Y: WorldMinY + (i/32)%64, Z: 3})
	}
}
