package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"

	"voxelworld/internal/config"
	"voxelworld/internal/meshing"
	"voxelworld/internal/metrics"
	"voxelworld/internal/physics"
	"voxelworld/internal/preview"
	"voxelworld/internal/registry"
	"voxelworld/internal/storage"
	"voxelworld/internal/terrain"
	"voxelworld/internal/world"
)

var (
	argConfig  = flag.String("config", "", "config file path (default $"+config.EnvConfigPath+")")
	argBlocks  = flag.String("blocks", "", "block table YAML; built-in table when empty")
	argSeed    = flag.Int64("seed", 0, "override world seed")
	argX       = flag.Int("x", world.WorldWidth/2, "spawn x")
	argZ       = flag.Int("z", world.WorldDepth/2, "spawn z")
	argRadius  = flag.Int("radius", -1, "generation radius in chunks (default render.distance)")
	argPreview = flag.String("preview", "", "write a top-down PNG of the generated area")
	argScale   = flag.Int("scale", 2, "preview pixels per block")
	argServe   = flag.Bool("serve", false, "keep serving metrics until interrupted")
	argPick    = flag.String("pick", "", "edit the block looked at from spawn: break or place=<block>")
	argLook    = flag.String("look", "1,-0.6,0", "look direction for -pick")
)

func main() {
	flag.Parse()
	defer closer.Close()

	cfg, err := config.Load(*argConfig)
	if err != nil {
		closer.Fatalln(err)
	}
	applyFlags(&cfg)

	level, _ := config.ParseLevel(cfg.Log.Level)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		serveMetrics(log, cfg.Metrics.Addr, m)
	}

	blocks, err := loadBlocks(*argBlocks)
	if err != nil {
		closer.Fatalln(err)
	}

	w := world.New(blocks,
		world.WithID(cfg.WorldUUID()),
		world.WithLogger(log),
		world.WithMetrics(m),
	)

	store, err := openStore(cfg.Storage, log)
	if err != nil {
		closer.Fatalln(err)
	}
	if store != nil {
		closer.Bind(func() {
			if err := store.Close(); err != nil {
				log.Error("close store", "error", err)
			}
		})
		if _, err := storage.LoadWorld(ctx, store, w); err != nil {
			closer.Fatalln(err)
		}
	}

	sum, err := run(ctx, log, cfg, w, blocks, store)
	if err != nil {
		closer.Fatalln(err)
	}
	printSummary(cfg, w, sum)

	if *argServe && cfg.Metrics.Addr != "" {
		log.Info("serving metrics, press Ctrl+C to exit", "addr", cfg.Metrics.Addr)
		closer.Hold()
	}
}

type summary struct {
	generated int
	meshed    int
	empty     int
	faces     int
	saved     int
	spawn     world.Pos
	grounded  bool
	edited    *world.Pos
	remeshed  int
	elapsed   time.Duration
}

// run generates the area around the spawn column, meshes it, persists it and
// optionally renders a preview.
func run(ctx context.Context, log *slog.Logger, cfg config.Config, w *world.World, blocks *registry.Registry, store storage.Store) (summary, error) {
	start := time.Now()
	center := world.Pos{X: *argX, Y: 0, Z: *argZ}
	radius := cfg.LoadRadius()

	var (
		pick pickAction
		look mgl32.Vec3
		err  error
	)
	if *argPick != "" {
		if pick, err = parsePick(*argPick, blocks); err != nil {
			return summary{}, err
		}
		if look, err = parseVec3(*argLook); err != nil {
			return summary{}, err
		}
	}

	gen := terrain.New(w, cfg.World, terrain.WithLogger(log))
	sum := summary{generated: gen.GenerateAroundPosition(center, radius)}

	ground, ok := physics.FindGroundLevel(float32(center.X)+0.5, float32(center.Z)+0.5, world.WorldMaxY-1, w)
	sum.spawn = world.Pos{X: center.X, Y: int(ground), Z: center.Z}
	sum.grounded = ok

	mesher := meshing.NewMesher(blocks, cfg.Render.AtlasSize,
		meshing.WithLogger(log),
		meshing.WithMetrics(w.Metrics()),
	)
	results, err := meshing.RebuildDirty(ctx, mesher, w, w.GetChunksInRadius(center, radius), cfg.Render.MeshWorkers)
	if err != nil {
		return sum, fmt.Errorf("mesh: %w", err)
	}
	for _, r := range results {
		if r.Empty {
			sum.empty++
			continue
		}
		sum.meshed++
		sum.faces += r.Mesh.Faces
	}

	if *argPick != "" && ok {
		eye := mgl32.Vec3{float32(center.X) + 0.5, ground + eyeHeight, float32(center.Z) + 0.5}
		if pos, edited := applyPick(w, eye, look, pick); edited {
			sum.edited = &pos
			log.Info("block edited", "pos", pos.String(), "place", pick.place)
			if sum.remeshed, err = remeshDirty(ctx, mesher, w, center, radius, cfg.Render.MeshWorkers); err != nil {
				return sum, fmt.Errorf("remesh: %w", err)
			}
		}
	}

	if store != nil {
		if sum.saved, err = storage.SaveWorld(ctx, store, w); err != nil {
			return sum, err
		}
	}

	if *argPreview != "" {
		img := preview.Heightmap(w, blocks, preview.ChunkRegion(center, radius), *argScale)
		if err := preview.WritePNG(*argPreview, img); err != nil {
			return sum, err
		}
		log.Info("preview written", "path", *argPreview, "size", img.Bounds().Size().String())
	}

	sum.elapsed = time.Since(start)
	return sum, nil
}

func serveMetrics(log *slog.Logger, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	closer.Bind(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	log.Info("metrics endpoint", "addr", addr)
}

func printSummary(cfg config.Config, w *world.World, sum summary) {
	title := color.New(color.FgGreen, color.Bold)
	label := color.New(color.FgCyan)

	title.Printf("world %s\n", w.ID())
	label.Print("  settings  ")
	fmt.Printf("seed=%d mix=%s surprises=%v\n", cfg.World.Seed, cfg.World.BiomeMix, cfg.World.Surprises)
	label.Print("  chunks    ")
	fmt.Printf("resident=%d generated=%d meshed=%d empty=%d faces=%d\n", w.Len(), sum.generated, sum.meshed, sum.empty, sum.faces)
	if sum.saved > 0 {
		label.Print("  saved     ")
		fmt.Printf("%d chunks to %s\n", sum.saved, cfg.Storage.Path)
	}
	label.Print("  spawn     ")
	if sum.grounded {
		fmt.Printf("%s\n", sum.spawn)
	} else {
		color.Yellow("no ground under %d,%d", sum.spawn.X, sum.spawn.Z)
	}
	if sum.edited != nil {
		label.Print("  edit      ")
		fmt.Printf("%s, %d chunks remeshed\n", sum.edited, sum.remeshed)
	}
	label.Print("  time      ")
	fmt.Printf("%s (%s)\n", sum.elapsed.Round(time.Millisecond), w.Metrics().TopN(3))
}
