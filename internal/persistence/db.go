// Package persistence provides the durable world store (SQLite by default,
// PostgreSQL optionally) and the background write-back queue in front of it.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/worldgen/internal/world"
)

// DB wraps a SQLite connection for world storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; WAL still lets reads proceed.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS biomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		biome_id INTEGER NOT NULL,
		biome TEXT NOT NULL,
		description TEXT NOT NULL,
		UNIQUE (x, y)
	);

	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		size TEXT NOT NULL,
		population INTEGER NOT NULL,
		description TEXT NOT NULL,
		UNIQUE (x, y)
	);

	CREATE TABLE IF NOT EXISTS landmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		description TEXT NOT NULL,
		UNIQUE (x, y)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

const tileColumns = "id, x, y, biome_id, biome, description"

// FindTileByXY returns the stored tile at (x, y).
func (db *DB) FindTileByXY(ctx context.Context, x, y int) (world.Tile, bool, error) {
	var t world.Tile
	err := db.conn.GetContext(ctx, &t, "SELECT "+tileColumns+" FROM tiles WHERE x = ? AND y = ?", x, y)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Tile{}, false, nil
	}
	if err != nil {
		return world.Tile{}, false, err
	}
	return t, true, nil
}

// FindTilesInBounds returns the stored tiles inside b in x-major order.
func (db *DB) FindTilesInBounds(ctx context.Context, b world.Bounds) ([]world.Tile, error) {
	var tiles []world.Tile
	err := db.conn.SelectContext(ctx, &tiles,
		"SELECT "+tileColumns+" FROM tiles WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ? ORDER BY x, y",
		b.MinX, b.MaxX, b.MinY, b.MaxY,
	)
	return tiles, err
}

// CreateTile inserts or refreshes the tile at (x, y).
func (db *DB) CreateTile(ctx context.Context, t world.Tile) (world.Tile, error) {
	err := db.conn.QueryRowxContext(ctx, `INSERT INTO tiles (x, y, biome_id, biome, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (x, y) DO UPDATE SET
			biome_id = excluded.biome_id, biome = excluded.biome, description = excluded.description
		RETURNING id`,
		t.X, t.Y, t.BiomeID, t.Biome, t.Description,
	).Scan(&t.ID)
	if err != nil {
		return world.Tile{}, fmt.Errorf("upsert tile (%d, %d): %w", t.X, t.Y, err)
	}
	return t, nil
}

// CreateTiles inserts tiles in one transaction, ignoring coordinates already stored.
func (db *DB) CreateTiles(ctx context.Context, tiles []world.Tile) (int, error) {
	if len(tiles) == 0 {
		return 0, nil
	}
	return db.insertIgnoring(ctx, `INSERT OR IGNORE INTO tiles (x, y, biome_id, biome, description)
		VALUES (?, ?, ?, ?, ?)`, len(tiles), func(i int) []any {
		t := tiles[i]
		return []any{t.X, t.Y, t.BiomeID, t.Biome, t.Description}
	})
}

// FindBiomeByName returns the biome row with the given name.
func (db *DB) FindBiomeByName(ctx context.Context, name string) (Biome, bool, error) {
	var b Biome
	err := db.conn.GetContext(ctx, &b, "SELECT id, name, description FROM biomes WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return Biome{}, false, nil
	}
	if err != nil {
		return Biome{}, false, err
	}
	return b, true, nil
}

// CreateBiome inserts the biome, or returns the existing row's ID if the name is taken.
func (db *DB) CreateBiome(ctx context.Context, b Biome) (Biome, error) {
	err := db.conn.QueryRowxContext(ctx, `INSERT INTO biomes (name, description) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET description = excluded.description
		RETURNING id`,
		b.Name, b.Description,
	).Scan(&b.ID)
	if err != nil {
		return Biome{}, fmt.Errorf("create biome %s: %w", b.Name, err)
	}
	return b, nil
}

// FindSettlementsInBounds returns settlements inside b in insertion order.
func (db *DB) FindSettlementsInBounds(ctx context.Context, b world.Bounds) ([]world.Settlement, error) {
	var out []world.Settlement
	err := db.conn.SelectContext(ctx, &out,
		`SELECT id, name, type, x, y, size, population, description FROM settlements
		WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ? ORDER BY id`,
		b.MinX, b.MaxX, b.MinY, b.MaxY,
	)
	return out, err
}

// FindLandmarksInBounds returns landmarks inside b in insertion order.
func (db *DB) FindLandmarksInBounds(ctx context.Context, b world.Bounds) ([]world.Landmark, error) {
	var out []world.Landmark
	err := db.conn.SelectContext(ctx, &out,
		`SELECT id, name, type, x, y, description FROM landmarks
		WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ? ORDER BY id`,
		b.MinX, b.MaxX, b.MinY, b.MaxY,
	)
	return out, err
}

// CreateManySettlements inserts settlements, skipping occupied coordinates.
func (db *DB) CreateManySettlements(ctx context.Context, s []world.Settlement) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	return db.insertIgnoring(ctx, `INSERT OR IGNORE INTO settlements
		(name, type, x, y, size, population, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, len(s), func(i int) []any {
		v := s[i]
		return []any{v.Name, v.Type, v.X, v.Y, v.Size, v.Population, v.Description}
	})
}

// CreateManyLandmarks inserts landmarks, skipping occupied coordinates.
func (db *DB) CreateManyLandmarks(ctx context.Context, l []world.Landmark) (int, error) {
	if len(l) == 0 {
		return 0, nil
	}
	return db.insertIgnoring(ctx, `INSERT OR IGNORE INTO landmarks
		(name, type, x, y, description)
		VALUES (?, ?, ?, ?, ?)`, len(l), func(i int) []any {
		v := l[i]
		return []any{v.Name, v.Type, v.X, v.Y, v.Description}
	})
}

// insertIgnoring runs one prepared INSERT OR IGNORE per row inside a
// transaction and returns how many rows were actually written.
func (db *DB) insertIgnoring(ctx context.Context, query string, n int, args func(i int) []any) (int, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i := 0; i < n; i++ {
		res, err := stmt.ExecContext(ctx, args(i)...)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
