package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_TileRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, ok, err := db.FindTileByXY(ctx, 10, 20); ok || err != nil {
		t.Fatalf("expected not found, ok=%v err=%v", ok, err)
	}

	created, err := db.CreateTile(ctx, world.Tile{X: 10, Y: 20, BiomeID: 11, Biome: "forest", Description: "You are in a forest at (10, 20)."})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected a row id")
	}

	again, err := db.CreateTile(ctx, world.Tile{X: 10, Y: 20, BiomeID: 10, Biome: "plains", Description: "You are in a plains at (10, 20)."})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("upsert changed id: %d -> %d", created.ID, again.ID)
	}

	got, ok, err := db.FindTileByXY(ctx, 10, 20)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if got.Biome != "plains" || got.BiomeID != 10 {
		t.Fatalf("upsert did not refresh row: %+v", got)
	}
}

func TestDB_CreateTilesSkipsDuplicatesAndOrders(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	var tiles []world.Tile
	for x := 1; x >= 0; x-- {
		for y := 1; y >= 0; y-- {
			tiles = append(tiles, world.Tile{X: x, Y: y, BiomeID: 1, Biome: "ocean", Description: "d"})
		}
	}
	n, err := db.CreateTiles(ctx, tiles)
	if err != nil || n != 4 {
		t.Fatalf("first insert n=%d err=%v", n, err)
	}
	n, err = db.CreateTiles(ctx, tiles)
	if err != nil || n != 0 {
		t.Fatalf("duplicate insert n=%d err=%v", n, err)
	}

	got, err := db.FindTilesInBounds(ctx, world.Bounds{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want := [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d tiles, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].X != w[0] || got[i].Y != w[1] {
			t.Fatalf("tile %d at (%d,%d), want %v", i, got[i].X, got[i].Y, w)
		}
	}
}

func TestDB_Biomes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	b, err := db.CreateBiome(ctx, Biome{Name: "forest", Description: "trees"})
	if err != nil || b.ID == 0 {
		t.Fatalf("create: %+v err=%v", b, err)
	}
	dup, err := db.CreateBiome(ctx, Biome{Name: "forest", Description: "more trees"})
	if err != nil || dup.ID != b.ID {
		t.Fatalf("duplicate create: %+v err=%v", dup, err)
	}
	found, ok, err := db.FindBiomeByName(ctx, "forest")
	if err != nil || !ok || found.ID != b.ID {
		t.Fatalf("find: %+v ok=%v err=%v", found, ok, err)
	}
	if _, ok, _ := db.FindBiomeByName(ctx, "moon"); ok {
		t.Fatal("expected unknown biome to be missing")
	}
}

func TestDB_StructuresSkipDuplicateCoordinates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	settlements := []world.Settlement{
		{Name: "Ashford", Type: world.SettlementTown, X: 5, Y: 5, Size: world.SizeMedium, Population: 1200, Description: "d"},
		{Name: "Deepwick", Type: world.SettlementHamlet, X: 90, Y: -3, Size: world.SizeTiny, Population: 60, Description: "d"},
	}
	n, err := db.CreateManySettlements(ctx, settlements)
	if err != nil || n != 2 {
		t.Fatalf("insert n=%d err=%v", n, err)
	}
	clash := []world.Settlement{{Name: "Other", Type: world.SettlementCity, X: 5, Y: 5, Size: world.SizeLarge, Population: 9000, Description: "d"}}
	if n, err := db.CreateManySettlements(ctx, clash); err != nil || n != 0 {
		t.Fatalf("duplicate insert n=%d err=%v", n, err)
	}

	got, err := db.FindSettlementsInBounds(ctx, world.Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ashford" || got[0].Type != world.SettlementTown || got[0].ID == 0 {
		t.Fatalf("unexpected settlements: %+v", got)
	}

	landmarks := []world.Landmark{{Name: "Old Bridge", Type: world.LandmarkBridge, X: 1, Y: 1, Description: "d"}}
	if n, err := db.CreateManyLandmarks(ctx, landmarks); err != nil || n != 1 {
		t.Fatalf("landmark insert n=%d err=%v", n, err)
	}
	if n, err := db.CreateManyLandmarks(ctx, landmarks); err != nil || n != 0 {
		t.Fatalf("landmark duplicate n=%d err=%v", n, err)
	}
	lm, err := db.FindLandmarksInBounds(ctx, world.Point(1, 1))
	if err != nil || len(lm) != 1 || lm[0].Type != world.LandmarkBridge {
		t.Fatalf("unexpected landmarks: %+v err=%v", lm, err)
	}
}

func TestDB_Meta(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, ok, err := db.GetMeta(ctx, "seed"); ok || err != nil {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := db.SaveMeta(ctx, "seed", "1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta(ctx, "seed", "2"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.GetMeta(ctx, "seed")
	if err != nil || !ok || v != "2" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

func TestOpenStore_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "world.db")
	s, err := OpenStore(config.StoreConfig{Driver: config.DriverSQLite, DSN: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("data dir not created: %v", err)
	}
	if _, err := OpenStore(config.StoreConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("WORLDGEN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("WORLDGEN_TEST_PG_DSN is required for integration test")
	}
	ctx := context.Background()
	pg, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer pg.Close()

	const x, y = -987654, 123456
	_ = pg.db.Exec("DELETE FROM tiles WHERE x = ? AND y = ?", x, y).Error
	_ = pg.db.Exec("DELETE FROM settlements WHERE x = ? AND y = ?", x, y).Error

	tile, err := pg.CreateTile(ctx, world.Tile{X: x, Y: y, BiomeID: 1, Biome: "ocean", Description: "d"})
	if err != nil || tile.ID == 0 {
		t.Fatalf("create tile: %+v err=%v", tile, err)
	}
	got, ok, err := pg.FindTileByXY(ctx, x, y)
	if err != nil || !ok || got.ID != tile.ID {
		t.Fatalf("find tile: %+v ok=%v err=%v", got, ok, err)
	}

	s := []world.Settlement{{Name: "Grimport", Type: world.SettlementVillage, X: x, Y: y, Size: world.SizeSmall, Population: 300, Description: "d"}}
	if n, err := pg.CreateManySettlements(ctx, s); err != nil || n != 1 {
		t.Fatalf("insert settlements n=%d err=%v", n, err)
	}
	if n, err := pg.CreateManySettlements(ctx, s); err != nil || n != 0 {
		t.Fatalf("duplicate settlements n=%d err=%v", n, err)
	}
}
