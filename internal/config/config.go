// Package config holds the world configuration: noise parameters for the three terrain
// axes, chunk geometry, settlement and landmark tunables, and the runtime settings for
// the cache, the store and the write-back queue.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Noise algorithms understood by the terrain package.
const (
	NoiseSimplex = "simplex"
	NoisePerlin  = "perlin"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NoiseParams configures one octave-noise axis.
type NoiseParams struct {
	Seed        int64   `yaml:"seed"`
	Scale       float64 `yaml:"scale"`       // Base frequency applied to world coordinates
	Octaves     int     `yaml:"octaves"`     // 0 yields a flat 0.5 field
	Persistence float64 `yaml:"persistence"` // Amplitude multiplier per octave
	Lacunarity  float64 `yaml:"lacunarity"`  // Frequency multiplier per octave
}

// TypeInts carries one integer per settlement type.
type TypeInts struct {
	City    int `yaml:"city"`
	Town    int `yaml:"town"`
	Village int `yaml:"village"`
	Hamlet  int `yaml:"hamlet"`
}

// PopulationRange is an inclusive [Min, Max] population interval.
type PopulationRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// PopulationRanges holds the population interval per settlement type.
type PopulationRanges struct {
	City    PopulationRange `yaml:"city"`
	Town    PopulationRange `yaml:"town"`
	Village PopulationRange `yaml:"village"`
	Hamlet  PopulationRange `yaml:"hamlet"`
}

// StructureConfig tunes settlement and landmark placement.
type StructureConfig struct {
	// Settlements per 1,000,000 area units.
	Density          TypeInts         `yaml:"density"`
	MinDistance      TypeInts         `yaml:"min_distance"`
	Population       PopulationRanges `yaml:"population"`
	LandmarkDensity  int              `yaml:"landmark_density"`
	LandmarkDistance int              `yaml:"landmark_min_distance"`
	MaxAttempts      int              `yaml:"max_attempts"`
}

// WorldConfig is the immutable description of a world. It is loaded once at startup
// and passed by value.
type WorldConfig struct {
	Height      NoiseParams `yaml:"height"`
	Temperature NoiseParams `yaml:"temperature"`
	Moisture    NoiseParams `yaml:"moisture"`

	NoiseAlgorithm string `yaml:"noise_algorithm"`

	ChunkSize          int     `yaml:"chunk_size"`
	SettlementSpacing  int     `yaml:"settlement_spacing"`
	CityProbability    float64 `yaml:"city_probability"`
	VillageProbability float64 `yaml:"village_probability"`

	Structures StructureConfig `yaml:"structures"`
}

// CacheConfig controls fast-cache freshness.
type CacheConfig struct {
	TileTTL       time.Duration `yaml:"tile_ttl"`
	ChunkTTL      time.Duration `yaml:"chunk_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// StoreConfig selects and addresses the persistent store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// WriterConfig sizes the background write-back queue.
type WriterConfig struct {
	QueueSize int           `yaml:"queue_size"`
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"` // Per-job store deadline
}

// Config is the full process configuration.
type Config struct {
	Preset   string       `yaml:"preset"`
	LogLevel string       `yaml:"log_level"`
	World    WorldConfig  `yaml:"world"`
	Cache    CacheConfig  `yaml:"cache"`
	Store    StoreConfig  `yaml:"store"`
	Writer   WriterConfig `yaml:"writer"`
}

// DefaultStructures returns the placement tables used by every preset.
func DefaultStructures() StructureConfig {
	return StructureConfig{
		Density:     TypeInts{City: 2, Town: 5, Village: 15, Hamlet: 30},
		MinDistance: TypeInts{City: 150, Town: 80, Village: 40, Hamlet: 20},
		Population: PopulationRanges{
			City:    PopulationRange{Min: 5000, Max: 15000},
			Town:    PopulationRange{Min: 1000, Max: 4999},
			Village: PopulationRange{Min: 200, Max: 999},
			Hamlet:  PopulationRange{Min: 50, Max: 199},
		},
		LandmarkDensity:  50,
		LandmarkDistance: 25,
		MaxAttempts:      100,
	}
}

// DefaultWorld returns a temperate continent with scattered settlements.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Height:             NoiseParams{Seed: 12345, Scale: 0.01, Octaves: 4, Persistence: 0.5, Lacunarity: 2.0},
		Temperature:        NoiseParams{Seed: 67890, Scale: 0.005, Octaves: 3, Persistence: 0.6, Lacunarity: 2.0},
		Moisture:           NoiseParams{Seed: 11111, Scale: 0.008, Octaves: 3, Persistence: 0.4, Lacunarity: 2.0},
		NoiseAlgorithm:     NoiseSimplex,
		ChunkSize:          50,
		SettlementSpacing:  20,
		CityProbability:    0.1,
		VillageProbability: 0.3,
		Structures:         DefaultStructures(),
	}
}

// MountainousWorld favours high, rugged terrain with fewer cities.
func MountainousWorld() WorldConfig {
	w := DefaultWorld()
	w.Height = NoiseParams{Seed: 54321, Scale: 0.015, Octaves: 6, Persistence: 0.6, Lacunarity: 2.2}
	w.Temperature.Seed = 98765
	w.Moisture.Seed = 22222
	w.SettlementSpacing = 25
	w.CityProbability = 0.05
	w.VillageProbability = 0.2
	return w
}

// IslandWorld produces wet, low-lying terrain broken up by sea.
func IslandWorld() WorldConfig {
	w := DefaultWorld()
	w.Height = NoiseParams{Seed: 99999, Scale: 0.02, Octaves: 5, Persistence: 0.45, Lacunarity: 2.0}
	w.Temperature = NoiseParams{Seed: 88888, Scale: 0.004, Octaves: 3, Persistence: 0.5, Lacunarity: 2.0}
	w.Moisture = NoiseParams{Seed: 77777, Scale: 0.01, Octaves: 4, Persistence: 0.5, Lacunarity: 2.0}
	w.SettlementSpacing = 15
	w.CityProbability = 0.08
	w.VillageProbability = 0.4
	return w
}

// Preset returns the named world preset.
func Preset(name string) (WorldConfig, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultWorld(), nil
	case "mountainous":
		return MountainousWorld(), nil
	case "island":
		return IslandWorld(), nil
	default:
		return WorldConfig{}, fmt.Errorf("unknown preset %q", name)
	}
}

// Default returns a complete configuration backed by a local sqlite file.
func Default() Config {
	return Config{
		Preset:   "default",
		LogLevel: "info",
		World:    DefaultWorld(),
		Cache: CacheConfig{
			TileTTL:       time.Hour,
			ChunkTTL:      2 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			DSN:    "data/world.db",
		},
		Writer: WriterConfig{
			QueueSize: 1024,
			Workers:   4,
			Timeout:   10 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
// An empty path yields the defaults. A preset named in the file replaces the
// default world before the file's own world section is applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		var head struct {
			Preset string `yaml:"preset"`
		}
		if err := yaml.Unmarshal(raw, &head); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		world, err := Preset(head.Preset)
		if err != nil {
			return Config{}, err
		}
		cfg.World = world

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("WORLDGEN_DB_DRIVER")); v != "" {
		c.Store.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDGEN_DB_DSN")); v != "" {
		c.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDGEN_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("WORLDGEN_SEED")); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("WORLDGEN_SEED: %w", err)
		}
		// Keep the axes decorrelated by offsetting each from the base seed.
		c.World.Height.Seed = seed
		c.World.Temperature.Seed = seed + 1
		c.World.Moisture.Seed = seed + 2
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return err
	}
	if c.Cache.TileTTL < 0 || c.Cache.ChunkTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Writer.QueueSize < 0 || c.Writer.Workers < 0 {
		return errors.New("writer queue size and workers must not be negative")
	}
	return nil
}

// Validate checks the world parameters that generation cannot recover from.
// Zero octaves are allowed and produce a neutral field.
func (w WorldConfig) Validate() error {
	if w.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", w.ChunkSize)
	}
	if w.SettlementSpacing <= 0 {
		return fmt.Errorf("settlement_spacing must be positive, got %d", w.SettlementSpacing)
	}
	if w.CityProbability < 0 || w.CityProbability > 1 {
		return fmt.Errorf("city_probability out of [0,1]: %v", w.CityProbability)
	}
	if w.VillageProbability < 0 || w.VillageProbability > 1 {
		return fmt.Errorf("village_probability out of [0,1]: %v", w.VillageProbability)
	}
	switch w.NoiseAlgorithm {
	case "", NoiseSimplex, NoisePerlin:
	default:
		return fmt.Errorf("unknown noise_algorithm %q", w.NoiseAlgorithm)
	}
	for name, p := range map[string]NoiseParams{"height": w.Height, "temperature": w.Temperature, "moisture": w.Moisture} {
		if p.Octaves < 0 {
			return fmt.Errorf("%s.octaves must not be negative", name)
		}
	}
	if w.Structures.MaxAttempts < 0 {
		return errors.New("structures.max_attempts must not be negative")
	}
	return nil
}

// SlogLevel maps the configured level name onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
