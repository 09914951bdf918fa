package engine

import (
	"context"
	"fmt"

	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/terrain"
)

// StaticBiomeIDs maps every biome to its table ID. Used when the store has not
// assigned its own.
func StaticBiomeIDs() map[string]int {
	ids := make(map[string]int)
	for _, r := range terrain.Rules() {
		ids[r.Name] = r.ID
	}
	return ids
}

// SeedBiomes makes sure every biome has a row in the store and returns the
// name→ID mapping the store assigned.
func SeedBiomes(ctx context.Context, store persistence.Store) (map[string]int, error) {
	ids := make(map[string]int)
	for _, r := range terrain.Rules() {
		b, ok, err := store.FindBiomeByName(ctx, r.Name)
		if err != nil {
			return nil, fmt.Errorf("find biome %s: %w", r.Name, err)
		}
		if !ok {
			b, err = store.CreateBiome(ctx, persistence.Biome{Name: r.Name, Description: r.Description})
			if err != nil {
				return nil, err
			}
		}
		ids[r.Name] = b.ID
	}
	return ids, nil
}
