package main

import (
	"flag"
	"fmt"
	"log/slog"

	"voxelworld/internal/config"
	"voxelworld/internal/registry"
	"voxelworld/internal/storage"
)

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.World.Seed = *argSeed
		case "radius":
			cfg.Render.Distance = config.ClampRenderDistance(*argRadius)
		}
	})
}

func loadBlocks(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.Load(path)
}

// openStore returns nil when persistence is disabled.
func openStore(s config.StorageSettings, log *slog.Logger) (storage.Store, error) {
	switch s.Backend {
	case config.BackendBadger:
		return storage.OpenBadger(s.Path, storage.WithLogger(log))
	case config.BackendSQLite:
		return storage.OpenSQLite(s.Path, storage.WithLogger(log))
	case config.BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, s.Backend)
	}
}
