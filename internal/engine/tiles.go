// Package engine serves tiles, chunks and region structures. Reads go through the
// fast cache, then the store, then deterministic generation; generated data is
// cached and written back in the background.
package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/talgya/worldgen/internal/cache"
	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/terrain"
	"github.com/talgya/worldgen/internal/world"
)

// hashMod is the resolution of the settlement-override probability draw.
const hashMod = 10000

// Source says which layer satisfied a read.
type Source string

const (
	SourceCache     Source = "cache"
	SourceStore     Source = "store"
	SourceGenerated Source = "generated"
)

// Deps are the collaborators of Tiles. Any of them may be nil: a nil Cache or
// Store skips that layer, a nil Writer skips write-back, and nil BiomeIDs falls
// back to StaticBiomeIDs.
type Deps struct {
	Cache    cache.Cache
	Store    persistence.Store
	Writer   *persistence.Writer
	BiomeIDs map[string]int
}

// Tiles is the tile and chunk generator. Safe for concurrent use.
type Tiles struct {
	cfg      config.WorldConfig
	ttl      config.CacheConfig
	field    *terrain.Field
	biomeIDs map[string]int

	cache  cache.Cache
	store  persistence.Store
	writer *persistence.Writer

	// Concurrent misses on the same key share one load.
	group singleflight.Group
	log   *slog.Logger
	now   func() time.Time
}

// NewTiles builds a generator for the given world.
func NewTiles(cfg config.WorldConfig, ttl config.CacheConfig, deps Deps) *Tiles {
	ids := deps.BiomeIDs
	if ids == nil {
		ids = StaticBiomeIDs()
	}
	return &Tiles{
		cfg:      cfg,
		ttl:      ttl,
		field:    terrain.NewField(cfg),
		biomeIDs: ids,
		cache:    deps.Cache,
		store:    deps.Store,
		writer:   deps.Writer,
		log:      slog.With("component", "tiles"),
		now:      time.Now,
	}
}

// ChunkSize is the edge length of a chunk in tiles.
func (t *Tiles) ChunkSize() int {
	return t.cfg.ChunkSize
}

// BiomeAt returns the final biome at (x, y), settlement override included.
func (t *Tiles) BiomeAt(x, y int) string {
	return t.resolveBiome(t.field.Sample(x, y), x, y)
}

// GenerateTile derives the tile at (x, y) without touching cache or store.
func (t *Tiles) GenerateTile(x, y int) world.Tile {
	return t.tileFor(t.BiomeAt(x, y), x, y)
}

// GenerateChunk derives a whole chunk without touching cache or store.
func (t *Tiles) GenerateChunk(cx, cy int) world.Chunk {
	size := t.cfg.ChunkSize
	startX, startY := world.ChunkToWorld(world.ChunkCoord{X: cx, Y: cy}, size)
	samples := t.field.Grid(startX, startY, size)

	tiles := make([]world.Tile, 0, len(samples))
	for i, s := range samples {
		x, y := startX+i/size, startY+i%size
		tiles = append(tiles, t.tileFor(t.resolveBiome(s, x, y), x, y))
	}
	return world.Chunk{ChunkX: cx, ChunkY: cy, Size: size, Tiles: tiles, GeneratedAt: t.now()}
}

func (t *Tiles) tileFor(biome string, x, y int) world.Tile {
	return world.Tile{
		X:           x,
		Y:           y,
		BiomeID:     t.biomeIDs[biome],
		Biome:       biome,
		Description: fmt.Sprintf("You are in a %s at (%d, %d).", biome, x, y),
	}
}

// resolveBiome classifies a sample and demotes settlement biomes that fail the
// probability draw or sit off the settlement grid.
func (t *Tiles) resolveBiome(s terrain.Sample, x, y int) string {
	name := terrain.Classify(s)
	if !terrain.IsSettlement(name) || t.settlementAllowed(name, x, y) {
		return name
	}
	return terrain.ClassifyNatural(s)
}

func (t *Tiles) settlementAllowed(biome string, x, y int) bool {
	prob := t.cfg.VillageProbability
	if biome == terrain.BiomeCity {
		prob = t.cfg.CityProbability
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%d:%s", x, y, biome)
	if float64(h.Sum32()%hashMod) >= prob*hashMod {
		return false
	}
	spacing := t.cfg.SettlementSpacing
	center := spacing / 2
	return world.FloorMod(x, spacing) == center && world.FloorMod(y, spacing) == center
}

type tileResult struct {
	tile   world.Tile
	source Source
}

// GetTile returns the tile at (x, y) from the first layer that has it.
func (t *Tiles) GetTile(ctx context.Context, x, y int) (world.Tile, error) {
	tile, _, err := t.GetTileWithSource(ctx, x, y)
	return tile, err
}

// GetTileWithSource is GetTile that also reports which layer answered. The only
// error is ctx ending before the tile is ready; the shared load carries on for
// other callers.
func (t *Tiles) GetTileWithSource(ctx context.Context, x, y int) (world.Tile, Source, error) {
	key := tileKey(x, y)
	if tile, ok := t.cachedTile(ctx, key); ok {
		return tile, SourceCache, nil
	}

	ch := t.group.DoChan(key, func() (any, error) {
		return t.loadTile(context.WithoutCancel(ctx), key, x, y), nil
	})
	select {
	case <-ctx.Done():
		return world.Tile{}, "", ctx.Err()
	case res := <-ch:
		r := res.Val.(tileResult)
		return r.tile, r.source, nil
	}
}

func (t *Tiles) loadTile(ctx context.Context, key string, x, y int) tileResult {
	// A flight that just finished may have filled the cache.
	if tile, ok := t.cachedTile(ctx, key); ok {
		return tileResult{tile, SourceCache}
	}

	if t.store != nil {
		tile, ok, err := t.store.FindTileByXY(ctx, x, y)
		switch {
		case err != nil:
			t.log.Warn("store read failed, generating", "x", x, "y", y, "error", err)
		case ok:
			t.cacheTile(ctx, key, tile)
			return tileResult{tile, SourceStore}
		}
	}

	tile := t.GenerateTile(x, y)
	t.cacheTile(ctx, key, tile)
	t.writeBackTile(key, tile)
	return tileResult{tile, SourceGenerated}
}

func (t *Tiles) writeBackTile(key string, tile world.Tile) {
	if t.store == nil || t.writer == nil {
		return
	}
	t.writer.Submit(key, func(ctx context.Context) error {
		saved, err := t.store.CreateTile(ctx, tile)
		if err != nil {
			return err
		}
		t.cacheTile(ctx, key, saved)
		return nil
	})
}

func (t *Tiles) cachedTile(ctx context.Context, key string) (world.Tile, bool) {
	if t.cache == nil {
		return world.Tile{}, false
	}
	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.log.Warn("cache get failed", "key", key, "error", err)
		return world.Tile{}, false
	}
	if !ok {
		return world.Tile{}, false
	}
	tile, err := decodeTile(raw)
	if err != nil {
		t.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return world.Tile{}, false
	}
	return tile, true
}

func (t *Tiles) cacheTile(ctx context.Context, key string, tile world.Tile) {
	if t.cache == nil {
		return
	}
	raw, err := encodeTile(tile)
	if err != nil {
		t.log.Warn("encode tile", "key", key, "error", err)
		return
	}
	if err := t.cache.SetWithTTL(ctx, key, t.ttl.TileTTL, raw); err != nil {
		t.log.Warn("cache set failed", "key", key, "error", err)
	}
}

type chunkResult struct {
	chunk  world.Chunk
	source Source
}

// GetChunk returns chunk (cx, cy) from the first layer that has all of it.
func (t *Tiles) GetChunk(ctx context.Context, cx, cy int) (world.Chunk, error) {
	c, _, err := t.GetChunkWithSource(ctx, cx, cy)
	return c, err
}

// GetChunkWithSource is GetChunk that also reports which layer answered.
func (t *Tiles) GetChunkWithSource(ctx context.Context, cx, cy int) (world.Chunk, Source, error) {
	key := chunkKey(cx, cy)
	if c, ok := t.cachedChunk(ctx, key); ok {
		return c, SourceCache, nil
	}

	ch := t.group.DoChan(key, func() (any, error) {
		return t.loadChunk(context.WithoutCancel(ctx), key, cx, cy), nil
	})
	select {
	case <-ctx.Done():
		return world.Chunk{}, "", ctx.Err()
	case res := <-ch:
		r := res.Val.(chunkResult)
		return r.chunk, r.source, nil
	}
}

func (t *Tiles) loadChunk(ctx context.Context, key string, cx, cy int) chunkResult {
	if c, ok := t.cachedChunk(ctx, key); ok {
		return chunkResult{c, SourceCache}
	}

	size := t.cfg.ChunkSize
	if t.store != nil {
		b := world.ChunkBounds(world.ChunkCoord{X: cx, Y: cy}, size)
		tiles, err := t.store.FindTilesInBounds(ctx, b)
		switch {
		case err != nil:
			t.log.Warn("store read failed, generating", "chunk_x", cx, "chunk_y", cy, "error", err)
		case len(tiles) == size*size:
			c := world.Chunk{ChunkX: cx, ChunkY: cy, Size: size, Tiles: tiles, GeneratedAt: t.now()}
			t.cacheChunk(ctx, key, c)
			return chunkResult{c, SourceStore}
		}
	}

	c := t.GenerateChunk(cx, cy)
	t.cacheChunk(ctx, key, c)
	if t.store != nil && t.writer != nil {
		tiles := c.Tiles
		t.writer.Submit(key, func(ctx context.Context) error {
			n, err := t.store.CreateTiles(ctx, tiles)
			if err != nil {
				return err
			}
			t.log.Debug("chunk persisted", "chunk_x", cx, "chunk_y", cy, "inserted", n)
			return nil
		})
	}
	return chunkResult{c, SourceGenerated}
}

func (t *Tiles) cachedChunk(ctx context.Context, key string) (world.Chunk, bool) {
	if t.cache == nil {
		return world.Chunk{}, false
	}
	raw, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.log.Warn("cache get failed", "key", key, "error", err)
		return world.Chunk{}, false
	}
	if !ok {
		return world.Chunk{}, false
	}
	c, err := decodeChunk(raw)
	if err != nil {
		t.log.Warn("discarding undecodable cache entry", "key", key, "error", err)
		return world.Chunk{}, false
	}
	return c, true
}

func (t *Tiles) cacheChunk(ctx context.Context, key string, c world.Chunk) {
	if t.cache == nil {
		return
	}
	raw, err := encodeChunk(c)
	if err != nil {
		t.log.Warn("encode chunk", "key", key, "error", err)
		return
	}
	if err := t.cache.SetWithTTL(ctx, key, t.ttl.ChunkTTL, raw); err != nil {
		t.log.Warn("cache set failed", "key", key, "error", err)
	}
}
