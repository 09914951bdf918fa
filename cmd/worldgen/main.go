// Command worldgen opens a world store, checks it belongs to the configured
// world, warms the chunks around the origin and places structures in the
// starting region. It then keeps the cache janitor running until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/talgya/worldgen/internal/cache"
	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/engine"
	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/world"
)

func main() {
	configPath := flag.String("config", os.Getenv("WORLDGEN_CONFIG"), "path to a YAML config file")
	warmRadius := flag.Int("warm", 1, "chunks to pre-generate in each direction around the origin")
	regionSize := flag.Int("region", 1000, "edge length of the starting structure region")
	once := flag.Bool("once", false, "exit after warm-up instead of running until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("worldgen starting",
		"preset", cfg.Preset,
		"noise", cfg.World.NoiseAlgorithm,
		"seed", cfg.World.Height.Seed,
		"chunk_size", cfg.World.ChunkSize,
		"store", cfg.Store.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Store ─────────────────────────────────────────────────────────
	store, err := persistence.OpenStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("store opened", "driver", cfg.Store.Driver)

	if err := engine.EnsureWorld(ctx, store, cfg.World); err != nil {
		if errors.Is(err, engine.ErrWorldMismatch) {
			slog.Error("refusing to serve: store was generated with other parameters", "error", err)
		} else {
			slog.Error("world check failed", "error", err)
		}
		os.Exit(1)
	}

	biomeIDs, err := engine.SeedBiomes(ctx, store)
	if err != nil {
		slog.Warn("biome seeding failed, using static ids", "error", err)
		biomeIDs = engine.StaticBiomeIDs()
	}

	// ── Cache + write-back ────────────────────────────────────────────
	mem := cache.NewMemory()
	go mem.RunJanitor(ctx, cfg.Cache.SweepInterval)

	writer := persistence.NewWriter(cfg.Writer)

	tiles := engine.NewTiles(cfg.World, cfg.Cache, engine.Deps{
		Cache:    mem,
		Store:    store,
		Writer:   writer,
		BiomeIDs: biomeIDs,
	})
	structures := engine.NewStructures(cfg.World, tiles, store)

	// ── Warm-up ───────────────────────────────────────────────────────
	start := time.Now()
	biomes := make(map[string]int)
	chunks := 0
warm:
	for cx := -*warmRadius; cx <= *warmRadius; cx++ {
		for cy := -*warmRadius; cy <= *warmRadius; cy++ {
			c, src, err := tiles.GetChunkWithSource(ctx, cx, cy)
			if err != nil {
				slog.Warn("warm-up interrupted", "error", err)
				break warm
			}
			chunks++
			for _, t := range c.Tiles {
				biomes[t.Biome]++
			}
			slog.Debug("chunk ready", "chunk_x", cx, "chunk_y", cy, "source", src)
		}
	}
	slog.Info("chunks warmed", "chunks", chunks, "elapsed", time.Since(start).Round(time.Millisecond))
	logBiomes(biomes)

	region := world.Region{CenterX: 0, CenterY: 0, Width: *regionSize, Height: *regionSize}
	placed, err := structures.GenerateRegionStructures(ctx, region)
	if err != nil {
		slog.Error("structure generation failed", "region", region.Key(), "error", err)
	} else {
		slog.Info("starting region ready",
			"region", region.Key(),
			"settlements", len(placed.Settlements),
			"landmarks", len(placed.Landmarks),
		)
	}

	if origin, err := tiles.GetTile(ctx, 0, 0); err == nil {
		fmt.Println(origin.Description)
	}

	if !*once {
		fmt.Println("World is live. Ctrl+C to stop.")
		<-ctx.Done()
		slog.Info("received signal, shutting down")
	}

	// Drain pending write-backs before the store closes.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := writer.Close(drainCtx); err != nil {
		slog.Error("write-back drain incomplete", "error", err)
	}
	st := writer.Stats()
	slog.Info("write-back finished", "done", st.Done, "failed", st.Failed, "dropped", st.Dropped)
}

func logBiomes(counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return counts[names[i]] > counts[names[j]] })
	for _, name := range names {
		slog.Info("biome", "name", name, "tiles", counts[name])
	}
}
