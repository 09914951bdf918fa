package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/talgya/worldgen/internal/world"
)

type biomeRow struct {
	ID          int    `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;not null;uniqueIndex"`
	Description string `gorm:"column:description;not null"`
}

func (biomeRow) TableName() string { return "biomes" }

type tileRow struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	X           int    `gorm:"column:x;not null;uniqueIndex:idx_tiles_xy"`
	Y           int    `gorm:"column:y;not null;uniqueIndex:idx_tiles_xy"`
	BiomeID     int    `gorm:"column:biome_id;not null"`
	Biome       string `gorm:"column:biome;not null"`
	Description string `gorm:"column:description;not null"`
}

func (tileRow) TableName() string { return "tiles" }

type settlementRow struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;not null"`
	Type        string `gorm:"column:type;not null"`
	X           int    `gorm:"column:x;not null;uniqueIndex:idx_settlements_xy"`
	Y           int    `gorm:"column:y;not null;uniqueIndex:idx_settlements_xy"`
	Size        string `gorm:"column:size;not null"`
	Population  int    `gorm:"column:population;not null"`
	Description string `gorm:"column:description;not null"`
}

func (settlementRow) TableName() string { return "settlements" }

type landmarkRow struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string `gorm:"column:name;not null"`
	Type        string `gorm:"column:type;not null"`
	X           int    `gorm:"column:x;not null;uniqueIndex:idx_landmarks_xy"`
	Y           int    `gorm:"column:y;not null;uniqueIndex:idx_landmarks_xy"`
	Description string `gorm:"column:description;not null"`
}

func (landmarkRow) TableName() string { return "landmarks" }

type metaRow struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}

func (metaRow) TableName() string { return "world_meta" }

// PG is the PostgreSQL-backed Store.
type PG struct {
	db *gorm.DB
}

// OpenPostgres connects to PostgreSQL and migrates the world tables.
func OpenPostgres(dsn string) (*PG, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&biomeRow{}, &tileRow{}, &settlementRow{}, &landmarkRow{}, &metaRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PG{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *PG) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *PG) FindTileByXY(ctx context.Context, x, y int) (world.Tile, bool, error) {
	var row tileRow
	err := p.db.WithContext(ctx).Where("x = ? AND y = ?", x, y).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return world.Tile{}, false, nil
		}
		return world.Tile{}, false, err
	}
	return row.tile(), true, nil
}

func (p *PG) FindTilesInBounds(ctx context.Context, b world.Bounds) ([]world.Tile, error) {
	var rows []tileRow
	err := p.db.WithContext(ctx).
		Where("x BETWEEN ? AND ? AND y BETWEEN ? AND ?", b.MinX, b.MaxX, b.MinY, b.MaxY).
		Order("x, y").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]world.Tile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.tile())
	}
	return out, nil
}

func (p *PG) CreateTile(ctx context.Context, t world.Tile) (world.Tile, error) {
	row := newTileRow(t)
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "x"}, {Name: "y"}},
		DoUpdates: clause.AssignmentColumns([]string{"biome_id", "biome", "description"}),
	}).Create(&row).Error
	if err != nil {
		return world.Tile{}, fmt.Errorf("upsert tile (%d, %d): %w", t.X, t.Y, err)
	}
	return row.tile(), nil
}

func (p *PG) CreateTiles(ctx context.Context, tiles []world.Tile) (int, error) {
	if len(tiles) == 0 {
		return 0, nil
	}
	rows := make([]tileRow, 0, len(tiles))
	for _, t := range tiles {
		rows = append(rows, newTileRow(t))
	}
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 500)
	return int(res.RowsAffected), res.Error
}

func (p *PG) FindBiomeByName(ctx context.Context, name string) (Biome, bool, error) {
	var row biomeRow
	err := p.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Biome{}, false, nil
		}
		return Biome{}, false, err
	}
	return Biome{ID: row.ID, Name: row.Name, Description: row.Description}, true, nil
}

func (p *PG) CreateBiome(ctx context.Context, b Biome) (Biome, error) {
	row := biomeRow{Name: b.Name, Description: b.Description}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(&row).Error
	if err != nil {
		return Biome{}, fmt.Errorf("create biome %s: %w", b.Name, err)
	}
	return Biome{ID: row.ID, Name: row.Name, Description: row.Description}, nil
}

func (p *PG) FindSettlementsInBounds(ctx context.Context, b world.Bounds) ([]world.Settlement, error) {
	var rows []settlementRow
	err := p.db.WithContext(ctx).
		Where("x BETWEEN ? AND ? AND y BETWEEN ? AND ?", b.MinX, b.MaxX, b.MinY, b.MaxY).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]world.Settlement, 0, len(rows))
	for _, r := range rows {
		out = append(out, world.Settlement{
			ID: r.ID, Name: r.Name, Type: world.SettlementType(r.Type), X: r.X, Y: r.Y,
			Size: world.SettlementSize(r.Size), Population: r.Population, Description: r.Description,
		})
	}
	return out, nil
}

func (p *PG) FindLandmarksInBounds(ctx context.Context, b world.Bounds) ([]world.Landmark, error) {
	var rows []landmarkRow
	err := p.db.WithContext(ctx).
		Where("x BETWEEN ? AND ? AND y BETWEEN ? AND ?", b.MinX, b.MaxX, b.MinY, b.MaxY).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]world.Landmark, 0, len(rows))
	for _, r := range rows {
		out = append(out, world.Landmark{
			ID: r.ID, Name: r.Name, Type: world.LandmarkType(r.Type), X: r.X, Y: r.Y, Description: r.Description,
		})
	}
	return out, nil
}

func (p *PG) CreateManySettlements(ctx context.Context, s []world.Settlement) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	rows := make([]settlementRow, 0, len(s))
	for _, v := range s {
		rows = append(rows, settlementRow{
			Name: v.Name, Type: string(v.Type), X: v.X, Y: v.Y,
			Size: string(v.Size), Population: v.Population, Description: v.Description,
		})
	}
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return int(res.RowsAffected), res.Error
}

func (p *PG) CreateManyLandmarks(ctx context.Context, l []world.Landmark) (int, error) {
	if len(l) == 0 {
		return 0, nil
	}
	rows := make([]landmarkRow, 0, len(l))
	for _, v := range l {
		rows = append(rows, landmarkRow{
			Name: v.Name, Type: string(v.Type), X: v.X, Y: v.Y, Description: v.Description,
		})
	}
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	return int(res.RowsAffected), res.Error
}

func (p *PG) SaveMeta(ctx context.Context, key, value string) error {
	return p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&metaRow{Key: key, Value: value}).Error
}

func (p *PG) GetMeta(ctx context.Context, key string) (string, bool, error) {
	var row metaRow
	err := p.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.Value, true, nil
}

// newTileRow leaves the ID unset so inserts always take a database serial.
func newTileRow(t world.Tile) tileRow {
	return tileRow{X: t.X, Y: t.Y, BiomeID: t.BiomeID, Biome: t.Biome, Description: t.Description}
}

func (r tileRow) tile() world.Tile {
	return world.Tile{ID: r.ID, X: r.X, Y: r.Y, BiomeID: r.BiomeID, Biome: r.Biome, Description: r.Description}
}
