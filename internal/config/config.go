package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

// EnvConfigPath names the environment variable consulted when no path is given.
const EnvConfigPath = "VOXELWORLD_CONFIG"

// Render distance limits, in chunks.
const (
	MinRenderDistance = 1
	MaxRenderDistance = world.GridChunksX
)

// Storage backends.
const (
	BackendNone   = "none"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config is the complete tool configuration.
type Config struct {
	World   terrain.WorldSettings `yaml:"world"`
	Render  RenderSettings        `yaml:"render"`
	Storage StorageSettings       `yaml:"storage"`
	Metrics MetricsSettings       `yaml:"metrics"`
	Log     LogSettings           `yaml:"log"`
}

// RenderSettings holds render configuration
type RenderSettings struct {
	Distance    int `yaml:"distance"` // in chunks
	AtlasSize   int `yaml:"atlas_size"`
	MeshWorkers int `yaml:"mesh_workers"`
}

type StorageSettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	// WorldID selects the saved world. Required with a backend; without one,
	// empty means a fresh random id.
	WorldID string `yaml:"world_id"`
}

type MetricsSettings struct {
	Addr string `yaml:"addr"` // e.g. ":9100"; empty disables the endpoint
}

type LogSettings struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World: terrain.DefaultWorldSettings(),
		Render: RenderSettings{
			Distance:    4,
			AtlasSize:   16,
			MeshWorkers: 0, // runtime.NumCPU
		},
		Storage: StorageSettings{Backend: BackendNone},
		Log:     LogSettings{Level: "info"},
	}
}

// Parse decodes YAML on top of the defaults and normalizes the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path, or the file named by VOXELWORLD_CONFIG when path is empty.
// With neither set it returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrBadWorldID     = errors.New("invalid world id")
	ErrNoWorldID      = errors.New("storage needs a world id")
)

// normalize clamps numeric settings to reasonable values and validates the rest.
func (c *Config) normalize() error {
	c.World = c.World.Clamped()
	c.Render.Distance = ClampRenderDistance(c.Render.Distance)
	if c.Render.AtlasSize <= 0 {
		c.Render.AtlasSize = 16
	}
	if c.Render.MeshWorkers < 0 {
		c.Render.MeshWorkers = 0
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = BackendNone
	case BackendNone, BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Backend != BackendNone && c.Storage.Path == "" {
		return fmt.Errorf("storage backend %s needs a path", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendNone && c.Storage.WorldID == "" {
		return fmt.Errorf("%w: set storage.world_id so later runs load the same world", ErrNoWorldID)
	}
	if c.Storage.WorldID != "" {
		if _, err := uuid.Parse(c.Storage.WorldID); err != nil {
			return fmt.Errorf("%w: %v", ErrBadWorldID, err)
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ClampRenderDistance limits a render distance to the world grid.
func ClampRenderDistance(distance int) int {
	// Clamp to reasonable values
	if distance < MinRenderDistance {
		distance = MinRenderDistance
	}
	if distance > MaxRenderDistance {
		distance = MaxRenderDistance
	}
	return distance
}

// LoadRadius returns radius for chunk generation around the viewer.
func (c Config) LoadRadius() int {
	return c.Render.Distance
}

// WorldUUID returns the configured world id, or a new random one.
func (c Config) WorldUUID() uuid.UUID {
	if id, err := uuid.Parse(c.Storage.WorldID); err == nil {
		return id
	}
	return uuid.New()
}

// ParseLevel maps debug|info|warn|error to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
