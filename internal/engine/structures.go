package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/world"
)

// RegionStructures is everything placed inside a region.
type RegionStructures struct {
	Settlements []world.Settlement `json:"settlements"`
	Landmarks   []world.Landmark   `json:"landmarks"`
}

// Structures runs region placement at most once per region key and serves
// placed structures from the store afterwards.
type Structures struct {
	placer *world.Placer
	store  persistence.Store

	mu        sync.Mutex
	generated map[string]struct{}
	group     singleflight.Group

	log *slog.Logger
}

// NewStructures creates the region service. Placement classifies terrain
// through tiles so structures see the same biomes players do.
func NewStructures(cfg config.WorldConfig, tiles *Tiles, store persistence.Store) *Structures {
	return &Structures{
		placer:    world.NewPlacer(cfg, tiles.BiomeAt),
		store:     store,
		generated: make(map[string]struct{}),
		log:       slog.With("component", "structures"),
	}
}

func (s *Structures) isGenerated(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.generated[key]
	return ok
}

func (s *Structures) markGenerated(key string) {
	s.mu.Lock()
	s.generated[key] = struct{}{}
	s.mu.Unlock()
}

// GenerateRegionStructures places settlements and landmarks in r the first time
// the region is seen and returns what the store holds for it. Later calls with
// the same region read the store only.
func (s *Structures) GenerateRegionStructures(ctx context.Context, r world.Region) (RegionStructures, error) {
	key := r.Key()
	if s.isGenerated(key) {
		return s.GetRegionStructures(ctx, r)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), r)
	})
	select {
	case <-ctx.Done():
		return RegionStructures{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return RegionStructures{}, res.Err
		}
		return res.Val.(RegionStructures), nil
	}
}

func (s *Structures) generate(ctx context.Context, r world.Region) (RegionStructures, error) {
	key := r.Key()
	if s.isGenerated(key) {
		return s.GetRegionStructures(ctx, r)
	}

	placed := RegionStructures{Settlements: s.placer.PlaceSettlements(r)}
	placed.Landmarks = s.placer.PlaceLandmarks(r, placed.Settlements)

	ns, err := s.store.CreateManySettlements(ctx, placed.Settlements)
	if err != nil {
		// Placement is reproducible, so the next call retries the same layout.
		s.log.Warn("persist settlements failed", "region", key, "error", err)
		return placed, nil
	}
	nl, err := s.store.CreateManyLandmarks(ctx, placed.Landmarks)
	if err != nil {
		s.log.Warn("persist landmarks failed", "region", key, "error", err)
		return placed, nil
	}
	s.markGenerated(key)
	s.log.Info("region generated", "region", key,
		"settlements", len(placed.Settlements), "settlements_new", ns,
		"landmarks", len(placed.Landmarks), "landmarks_new", nl)

	stored, err := s.GetRegionStructures(ctx, r)
	if err != nil {
		s.log.Warn("read back region failed", "region", key, "error", err)
		return placed, nil
	}
	return stored, nil
}

// GetRegionStructures returns the stored structures inside r's bounds.
func (s *Structures) GetRegionStructures(ctx context.Context, r world.Region) (RegionStructures, error) {
	b := r.Bounds()
	if b.Empty() {
		return RegionStructures{}, nil
	}

	var out RegionStructures
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.store.FindSettlementsInBounds(gctx, b)
		if err != nil {
			return fmt.Errorf("find settlements: %w", err)
		}
		out.Settlements = v
		return nil
	})
	g.Go(func() error {
		v, err := s.store.FindLandmarksInBounds(gctx, b)
		if err != nil {
			return fmt.Errorf("find landmarks: %w", err)
		}
		out.Landmarks = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return RegionStructures{}, err
	}
	return out, nil
}

// GetSettlementAt returns the settlement at (x, y), or nil.
func (s *Structures) GetSettlementAt(ctx context.Context, x, y int) (*world.Settlement, error) {
	found, err := s.store.FindSettlementsInBounds(ctx, world.Point(x, y))
	if err != nil {
		return nil, fmt.Errorf("settlement at (%d, %d): %w", x, y, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// GetLandmarkAt returns the landmark at (x, y), or nil.
func (s *Structures) GetLandmarkAt(ctx context.Context, x, y int) (*world.Landmark, error) {
	found, err := s.store.FindLandmarksInBounds(ctx, world.Point(x, y))
	if err != nil {
		return nil, fmt.Errorf("landmark at (%d, %d): %w", x, y, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// GetStructureAt returns whatever stands at (x, y), settlements first, or nil.
func (s *Structures) GetStructureAt(ctx context.Context, x, y int) (world.Structure, error) {
	settlement, err := s.GetSettlementAt(ctx, x, y)
	if err != nil {
		return nil, err
	}
	if settlement != nil {
		return settlement, nil
	}
	landmark, err := s.GetLandmarkAt(ctx, x, y)
	if err != nil {
		return nil, err
	}
	if landmark != nil {
		return landmark, nil
	}
	return nil, nil
}
