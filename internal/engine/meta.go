package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/persistence"
)

const worldMetaKey = "world_fingerprint"

// ErrWorldMismatch means the store was populated by a world with different
// generation parameters. Serving from it would mix two worlds.
var ErrWorldMismatch = errors.New("store belongs to a different world")

// Fingerprint identifies the parameters that decide what a tile looks like.
func Fingerprint(cfg config.WorldConfig) string {
	algo := cfg.NoiseAlgorithm
	if algo == "" {
		algo = config.NoiseSimplex
	}
	return fmt.Sprintf("%s|h%+v|t%+v|m%+v|chunk=%d|spacing=%d|city=%g|village=%g",
		algo, cfg.Height, cfg.Temperature, cfg.Moisture,
		cfg.ChunkSize, cfg.SettlementSpacing, cfg.CityProbability, cfg.VillageProbability)
}

// EnsureWorld records the world fingerprint in a fresh store and rejects a
// store that already holds another one.
func EnsureWorld(ctx context.Context, store persistence.Store, cfg config.WorldConfig) error {
	want := Fingerprint(cfg)
	got, ok, err := store.GetMeta(ctx, worldMetaKey)
	if err != nil {
		return fmt.Errorf("read world fingerprint: %w", err)
	}
	if ok {
		if got != want {
			return fmt.Errorf("%w: stored %q, configured %q", ErrWorldMismatch, got, want)
		}
		return nil
	}
	if err := store.SaveMeta(ctx, worldMetaKey, want); err != nil {
		return fmt.Errorf("save world fingerprint: %w", err)
	}
	return nil
}
