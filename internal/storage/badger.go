package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"voxelworld/internal/world"
)

// BadgerStore keeps chunks in a BadgerDB key-value store.
type BadgerStore struct {
	db      *badger.DB
	log     *slog.Logger
	mutex   sync.RWMutex
	isReady bool
}

// OpenBadger opens (or creates) a store in dir.
func OpenBadger(dir string, opts ...Option) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions(dir), opts)
}

// OpenBadgerInMemory opens a store that lives only in memory.
func OpenBadgerInMemory(opts ...Option) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), opts)
}

func openBadger(bopts badger.Options, opts []Option) (*BadgerStore, error) {
	o := buildOptions(opts)
	bopts.Logger = nil // badger is noisy at Info

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	o.log.Debug("badger store opened", "dir", bopts.Dir, "in_memory", bopts.InMemory)
	return &BadgerStore{db: db, log: o.log, isReady: true}, nil
}

func worldPrefix(worldID uuid.UUID) []byte {
	return []byte("chunk:" + worldID.String() + ":")
}

// generatedPrefix namespaces the empty marker keys recording generated chunks.
func generatedPrefix(worldID uuid.UUID) []byte {
	return []byte("gen:" + worldID.String() + ":")
}

func keyIn(prefix []byte, key world.ChunkKey) []byte {
	return fmt.Appendf(prefix, "%d:%d:%d", key.X, key.Y, key.Z)
}

func chunkKey(worldID uuid.UUID, key world.ChunkKey) []byte {
	return keyIn(worldPrefix(worldID), key)
}

func generatedKey(worldID uuid.UUID, key world.ChunkKey) []byte {
	return keyIn(generatedPrefix(worldID), key)
}

func parseChunkKey(prefix, k []byte) (world.ChunkKey, error) {
	var key world.ChunkKey
	if _, err := fmt.Sscanf(string(k[len(prefix):]), "%d:%d:%d", &key.X, &key.Y, &key.Z); err != nil {
		return key, fmt.Errorf("bad chunk key %q: %w", k, err)
	}
	return key, nil
}

func (s *BadgerStore) SaveChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey, rec Record) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(chunkKey(worldID, key), rec.Data); err != nil {
			return err
		}
		if rec.Generated {
			return txn.Set(generatedKey(worldID, key), nil)
		}
		return txn.Delete(generatedKey(worldID, key))
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

func (s *BadgerStore) LoadChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey) (Record, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return Record{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(worldID, key))
		if err != nil {
			return err
		}
		if rec.Data, err = item.ValueCopy(nil); err != nil {
			return err
		}
		_, err = txn.Get(generatedKey(worldID, key))
		switch {
		case err == nil:
			rec.Generated = true
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("badger get: %w", err)
	}
	return rec, nil
}

func (s *BadgerStore) ListChunks(ctx context.Context, worldID uuid.UUID) ([]world.ChunkKey, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrClosed
	}

	prefix := worldPrefix(worldID)
	var keys []world.ChunkKey
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, err := parseChunkKey(prefix, it.Item().Key())
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortKeys(keys)
	return keys, nil
}

func (s *BadgerStore) DeleteWorld(ctx context.Context, worldID uuid.UUID) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.DropPrefix(worldPrefix(worldID), generatedPrefix(worldID)); err != nil {
		return fmt.Errorf("badger drop prefix: %w", err)
	}
	return nil
}

// Close releases the database; further calls return nil.
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.log.Debug("badger store closed")
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
