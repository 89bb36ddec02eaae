package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"voxelworld/internal/world"
)

// SQLiteStore keeps chunks as blobs in one SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	log    *slog.Logger
	closed atomic.Bool
}

// OpenSQLite opens a database file, or an in-memory one for ":memory:".
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	o := buildOptions(opts)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: required for :memory: and keeps writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	o.log.Debug("sqlite store opened", "path", path)
	return &SQLiteStore{db: db, log: o.log}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			world_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			data BLOB NOT NULL,
			generated INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (world_id, x, y, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey, rec Record) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (world_id, x, y, z, data, generated) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (world_id, x, y, z) DO UPDATE SET data = excluded.data, generated = excluded.generated`,
		worldID.String(), key.X, key.Y, key.Z, rec.Data, rec.Generated)
	if err != nil {
		return fmt.Errorf("sqlite upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadChunk(ctx context.Context, worldID uuid.UUID, key world.ChunkKey) (Record, error) {
	if s.closed.Load() {
		return Record{}, ErrClosed
	}
	var rec Record
	err := s.db.QueryRowContext(ctx,
		`SELECT data, generated FROM chunks WHERE world_id = ? AND x = ? AND y = ? AND z = ?`,
		worldID.String(), key.X, key.Y, key.Z).Scan(&rec.Data, &rec.Generated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("sqlite select: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListChunks(ctx context.Context, worldID uuid.UUID) ([]world.ChunkKey, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y, z FROM chunks WHERE world_id = ? ORDER BY x, z, y`, worldID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer rows.Close()

	var keys []world.ChunkKey
	for rows.Next() {
		var k world.ChunkKey
		if err := rows.Scan(&k.X, &k.Y, &k.Z); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) DeleteWorld(ctx context.Context, worldID uuid.UUID) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE world_id = ?`, worldID.String()); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.log.Debug("sqlite store closed")
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
