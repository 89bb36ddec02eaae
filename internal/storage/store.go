package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"voxelworld/internal/world"
)

var (
	// ErrNotFound is returned when no chunk is stored under a key.
	ErrNotFound = errors.New("chunk not found")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store closed")
)

// Record is one persisted chunk. Data is the headerless serialized chunk;
// Generated is stored beside it.
type Record struct {
	Data      []byte
	Generated bool
}

// Store persists serialized chunks, namespaced by world id.
type Store interface {
	SaveChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey, rec Record) error
	LoadChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey) (Record, error)
	ListChunks(ctx context.Context, worldID uuid.UUID) ([]world.ChunkKey, error)
	DeleteWorld(ctx context.Context, worldID uuid.UUID) error
	Close() error
}

// Option configures a store backend.
type Option func(*options)

type options struct {
	log *slog.Logger
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SaveWorld writes every resident chunk of w and returns how many were saved.
func SaveWorld(ctx context.Context, s Store, w *world.World) (int, error) {
	defer w.Metrics().Track("storage.SaveWorld")()
	saved := 0
	for _, c := range w.Chunks() {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		rec := Record{Data: c.Serialize(), Generated: c.Generated()}
		if err := s.SaveChunk(ctx, w.ID(), c.Key(), rec); err != nil {
			return saved, fmt.Errorf("save %s: %w", c.Key(), err)
		}
		saved++
	}
	w.Logger().Info("world saved", "world", w.ID().String(), "chunks", saved)
	return saved, nil
}

// LoadWorld installs every chunk stored for w's id and returns how many were loaded.
func LoadWorld(ctx context.Context, s Store, w *world.World) (int, error) {
	defer w.Metrics().Track("storage.LoadWorld")()
	keys, err := s.ListChunks(ctx, w.ID())
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	loaded := 0
	for _, key := range keys {
		if err := LoadInto(ctx, s, w, key); err != nil {
			return loaded, err
		}
		loaded++
	}
	w.Logger().Info("world loaded", "world", w.ID().String(), "chunks", loaded)
	return loaded, nil
}

// LoadInto loads one chunk into w. A stored blob of the wrong size surfaces
// world.ErrMalformedBuffer and leaves w unchanged. Loaded chunks are marked
// dirty, and generated only if they were generated when saved, so chunks that
// merely caught a neighbour's tree are still filled by the generator.
func LoadInto(ctx context.Context, s Store, w *world.World, key world.ChunkKey) error {
	if !world.IsBandAligned(key.Y) {
		return fmt.Errorf("load %s: misaligned y offset", key)
	}
	rec, err := s.LoadChunk(ctx, w.ID(), key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	c := world.NewChunk(key.Coord(), key.Y)
	if err := c.Deserialize(rec.Data); err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if rec.Generated {
		c.MarkGenerated()
	}
	w.PutChunk(c)
	w.DirtyFaceNeighbors(key)
	return nil
}
