package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/world"
)

// Biome is a persisted biome row. Tiles reference it by ID.
type Biome struct {
	ID          int    `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

// Store is the durable world store. Not-found is reported as ok == false or an
// empty slice, never as an error. Tiles, settlements and landmarks are unique on (x, y).
type Store interface {
	FindTileByXY(ctx context.Context, x, y int) (world.Tile, bool, error)
	// FindTilesInBounds returns the tiles inside b ordered by x, then y.
	FindTilesInBounds(ctx context.Context, b world.Bounds) ([]world.Tile, error)
	// CreateTile upserts on (x, y) and returns the tile with its row ID.
	CreateTile(ctx context.Context, t world.Tile) (world.Tile, error)
	// CreateTiles inserts a batch, skipping coordinates already stored.
	CreateTiles(ctx context.Context, tiles []world.Tile) (int, error)

	FindBiomeByName(ctx context.Context, name string) (Biome, bool, error)
	CreateBiome(ctx context.Context, b Biome) (Biome, error)

	FindSettlementsInBounds(ctx context.Context, b world.Bounds) ([]world.Settlement, error)
	FindLandmarksInBounds(ctx context.Context, b world.Bounds) ([]world.Landmark, error)
	// CreateManySettlements and CreateManyLandmarks skip duplicates and return
	// the number of rows actually inserted.
	CreateManySettlements(ctx context.Context, s []world.Settlement) (int, error)
	CreateManyLandmarks(ctx context.Context, l []world.Landmark) (int, error)

	SaveMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, bool, error)

	Close() error
}

// OpenStore opens the store selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		return Open(cfg.DSN)
	case config.DriverPostgres:
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
