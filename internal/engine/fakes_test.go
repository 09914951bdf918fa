package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/talgya/worldgen/internal/persistence"
	"github.com/talgya/worldgen/internal/world"
)

type xy [2]int

// fakeStore is an in-memory persistence.Store that counts calls.
type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	tiles       map[xy]world.Tile
	settlements []world.Settlement
	landmarks   []world.Landmark
	biomes      map[string]persistence.Biome
	meta        map[string]string

	readErr  error
	writeErr error
	// gate, when set, blocks FindTileByXY until closed.
	gate    chan struct{}
	entered chan struct{}

	findTileCalls        int
	createTileCalls      int
	createTilesCalls     int
	createSettlementCall int
	createLandmarkCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tiles:  make(map[xy]world.Tile),
		biomes: make(map[string]persistence.Biome),
		meta:   make(map[string]string),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) FindTileByXY(ctx context.Context, x, y int) (world.Tile, bool, error) {
	f.mu.Lock()
	f.findTileCalls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return world.Tile{}, false, f.readErr
	}
	t, ok := f.tiles[xy{x, y}]
	return t, ok, nil
}

func (f *fakeStore) FindTilesInBounds(ctx context.Context, b world.Bounds) ([]world.Tile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []world.Tile
	for k, t := range f.tiles {
		if b.Contains(k[0], k[1]) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out, nil
}

func (f *fakeStore) CreateTile(ctx context.Context, t world.Tile) (world.Tile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createTileCalls++
	if f.writeErr != nil {
		return world.Tile{}, f.writeErr
	}
	if old, ok := f.tiles[xy{t.X, t.Y}]; ok {
		t.ID = old.ID
	} else {
		t.ID = f.id()
	}
	f.tiles[xy{t.X, t.Y}] = t
	return t, nil
}

func (f *fakeStore) CreateTiles(ctx context.Context, tiles []world.Tile) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createTilesCalls++
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := 0
	for _, t := range tiles {
		if _, ok := f.tiles[xy{t.X, t.Y}]; ok {
			continue
		}
		t.ID = f.id()
		f.tiles[xy{t.X, t.Y}] = t
		n++
	}
	return n, nil
}

func (f *fakeStore) FindBiomeByName(ctx context.Context, name string) (persistence.Biome, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.biomes[name]
	return b, ok, nil
}

func (f *fakeStore) CreateBiome(ctx context.Context, b persistence.Biome) (persistence.Biome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.biomes[b.Name]; ok {
		return old, nil
	}
	b.ID = int(f.id()) + 100
	f.biomes[b.Name] = b
	return b, nil
}

func (f *fakeStore) FindSettlementsInBounds(ctx context.Context, b world.Bounds) ([]world.Settlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []world.Settlement
	for _, s := range f.settlements {
		if b.Contains(s.X, s.Y) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) FindLandmarksInBounds(ctx context.Context, b world.Bounds) ([]world.Landmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []world.Landmark
	for _, l := range f.landmarks {
		if b.Contains(l.X, l.Y) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateManySettlements(ctx context.Context, s []world.Settlement) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createSettlementCall++
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	taken := make(map[xy]bool)
	for _, v := range f.settlements {
		taken[xy{v.X, v.Y}] = true
	}
	n := 0
	for _, v := range s {
		if taken[xy{v.X, v.Y}] {
			continue
		}
		taken[xy{v.X, v.Y}] = true
		v.ID = f.id()
		f.settlements = append(f.settlements, v)
		n++
	}
	return n, nil
}

func (f *fakeStore) CreateManyLandmarks(ctx context.Context, l []world.Landmark) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createLandmarkCalls++
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	taken := make(map[xy]bool)
	for _, v := range f.landmarks {
		taken[xy{v.X, v.Y}] = true
	}
	n := 0
	for _, v := range l {
		if taken[xy{v.X, v.Y}] {
			continue
		}
		taken[xy{v.X, v.Y}] = true
		v.ID = f.id()
		f.landmarks = append(f.landmarks, v)
		n++
	}
	return n, nil
}

func (f *fakeStore) SaveMeta(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta[key] = value
	return nil
}

func (f *fakeStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.meta[key]
	return v, ok, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) counts() (findTile, createTile, createSettlements int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findTileCalls, f.createTileCalls, f.createSettlementCall
}

// brokenCache fails every call.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache unreachable")
}

func (brokenCache) SetWithTTL(context.Context, string, time.Duration, string) error {
	return errors.New("cache unreachable")
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
