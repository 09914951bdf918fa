package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/talgya/worldgen/internal/config"
	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/world"
)

var testRegion = world.Region{CenterX: 0, CenterY: 0, Width: 1000, Height: 1000}

func newStructures(t *testing.T, wc config.WorldConfig, store persistence.Store) *Structures {
	t.Helper()
	return NewStructures(wc, NewTiles(wc, config.CacheConfig{}, Deps{}), store)
}

func positions(rs RegionStructures) []string {
	var out []string
	for _, s := range rs.Settlements {
		out = append(out, fmt.Sprintf("%s:%s:%d,%d", s.Type, s.Name, s.X, s.Y))
	}
	for _, l := range rs.Landmarks {
		out = append(out, fmt.Sprintf("%s:%s:%d,%d", l.Type, l.Name, l.X, l.Y))
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGenerateRegionStructures_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newStructures(t, config.DefaultWorld(), store)

	first, err := svc.GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first.Settlements) == 0 {
		t.Fatal("expected settlements in a 1000x1000 region")
	}
	second, err := svc.GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !equalStrings(positions(first), positions(second)) {
		t.Fatal("second call returned a different set")
	}
	if _, _, creates := store.counts(); creates != 1 {
		t.Fatalf("expected one placement write, got %d", creates)
	}

	b := testRegion.Bounds()
	for _, s := range second.Settlements {
		if s.ID == 0 || !b.Contains(s.X, s.Y) {
			t.Fatalf("bad stored settlement %+v", s)
		}
	}
}

func TestGenerateRegionStructures_ConcurrentSameRegion(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newStructures(t, config.DefaultWorld(), store)

	const callers = 20
	results := make([]RegionStructures, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GenerateRegionStructures(ctx, testRegion)
		}(i)
	}
	wg.Wait()

	want := positions(results[0])
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if !equalStrings(positions(results[i]), want) {
			t.Fatalf("caller %d saw a different region", i)
		}
	}
	if _, _, creates := store.counts(); creates != 1 {
		t.Fatalf("expected exactly one placement, got %d", creates)
	}
}

func TestGenerateRegionStructures_RetriesAfterWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.writeErr = errors.New("disk full")
	svc := newStructures(t, config.DefaultWorld(), store)

	placed, err := svc.GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatalf("failed persist must not surface: %v", err)
	}
	if svc.isGenerated(testRegion.Key()) {
		t.Fatal("region marked generated although nothing was stored")
	}

	store.mu.Lock()
	store.writeErr = nil
	store.mu.Unlock()

	stored, err := svc.GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !svc.isGenerated(testRegion.Key()) {
		t.Fatal("region not marked after successful persist")
	}
	if !equalStrings(positions(placed), positions(stored)) {
		t.Fatal("retry placed a different layout")
	}
	if _, _, creates := store.counts(); creates != 2 {
		t.Fatalf("expected two placement writes, got %d", creates)
	}
}

func TestGenerateRegionStructures_NoCitiesWhenDisabled(t *testing.T) {
	wc := config.DefaultWorld()
	wc.CityProbability = 0
	svc := newStructures(t, wc, newFakeStore())

	got, err := svc.GenerateRegionStructures(context.Background(), world.Region{CenterX: 500, CenterY: -500, Width: 2000, Height: 2000})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range got.Settlements {
		if s.Type == world.SettlementCity {
			t.Fatalf("city placed with zero city probability: %+v", s)
		}
	}
}

func TestPointLookups(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newStructures(t, config.DefaultWorld(), store)

	got, err := svc.GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatal(err)
	}
	s := got.Settlements[0]
	found, err := svc.GetStructureAt(ctx, s.X, s.Y)
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.StructureName() != s.Name {
		t.Fatalf("expected settlement %q at (%d, %d), got %v", s.Name, s.X, s.Y, found)
	}

	if len(got.Landmarks) > 0 {
		l := got.Landmarks[0]
		lm, err := svc.GetLandmarkAt(ctx, l.X, l.Y)
		if err != nil || lm == nil || lm.Name != l.Name {
			t.Fatalf("landmark lookup at (%d, %d): %v %v", l.X, l.Y, lm, err)
		}
	}

	empty, err := svc.GetStructureAt(ctx, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if empty != nil {
		t.Fatalf("expected nothing far away, got %v", empty)
	}

	store.mu.Lock()
	store.readErr = errors.New("timeout")
	store.mu.Unlock()
	if _, err := svc.GetSettlementAt(ctx, s.X, s.Y); err == nil {
		t.Fatal("expected read error to surface")
	}
}

func TestGetRegionStructures_EmptyRegion(t *testing.T) {
	svc := newStructures(t, config.DefaultWorld(), newFakeStore())
	got, err := svc.GetRegionStructures(context.Background(), world.Region{Width: 0, Height: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Settlements)+len(got.Landmarks) != 0 {
		t.Fatalf("expected nothing, got %+v", got)
	}
}

func TestGenerateRegionStructures_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "world.db")
	db, err := persistence.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	wc := config.DefaultWorld()
	first, err := newStructures(t, wc, db).GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatal(err)
	}

	// A new service has no memory of the region and places again; the store
	// must absorb the repeat without duplicating coordinates.
	second, err := newStructures(t, wc, db).GenerateRegionStructures(ctx, testRegion)
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(positions(first), positions(second)) {
		t.Fatal("fresh service returned a different region")
	}

	seen := make(map[[2]int]bool)
	for _, s := range second.Settlements {
		k := [2]int{s.X, s.Y}
		if seen[k] {
			t.Fatalf("duplicate settlement at %v", k)
		}
		seen[k] = true
	}
}
