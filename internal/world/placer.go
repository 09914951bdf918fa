package world

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/talgya/worldgen/internal/config"
)

// Seed offsets keep the settlement and landmark streams of one region independent.
const (
	settlementSalt = 10000
	landmarkSalt   = 20000
)

// Placer scatters settlements and landmarks over a region under spacing and
// biome-suitability rules. Placement for a region is reproducible: the random
// stream is derived from the world seed and the region key.
type Placer struct {
	cfg      config.WorldConfig
	classify func(x, y int) string
}

// NewPlacer creates a placer. classify returns the biome name at a coordinate.
func NewPlacer(cfg config.WorldConfig, classify func(x, y int) string) *Placer {
	return &Placer{cfg: cfg, classify: classify}
}

func (p *Placer) rng(r Region, salt int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(r.Key()))
	return rand.New(rand.NewSource(p.cfg.Height.Seed + int64(h.Sum64()) + salt))
}

func (p *Placer) maxAttempts() int {
	if p.cfg.Structures.MaxAttempts > 0 {
		return p.cfg.Structures.MaxAttempts
	}
	return 100
}

// enabled reports whether a settlement type may spawn at all in this world.
func (p *Placer) enabled(t SettlementType) bool {
	switch t {
	case SettlementCity:
		return p.cfg.CityProbability > 0
	case SettlementVillage:
		return p.cfg.VillageProbability > 0
	}
	return true
}

func targetCount(perMillion, area int) int {
	return int(math.Round(float64(perMillion) * float64(area) / 1_000_000))
}

// PlaceSettlements fills the region with settlements, largest types first.
// Slots whose candidates all fail are skipped, so the result may fall short of
// the configured density.
func (p *Placer) PlaceSettlements(r Region) []Settlement {
	area := r.Area()
	if area == 0 {
		return nil
	}
	rng := p.rng(r, settlementSalt)
	caser := cases.Title(language.English)
	b := r.Bounds()
	sc := p.cfg.Structures

	var placed []Settlement
	for _, t := range SettlementTypes {
		if !p.enabled(t) {
			continue
		}
		count := targetCount(density(sc, t), area)
		for i := 0; i < count; i++ {
			if s, ok := p.placeSettlement(rng, caser, b, t, placed); ok {
				placed = append(placed, s)
			}
		}
	}
	return placed
}

func (p *Placer) placeSettlement(rng *rand.Rand, caser cases.Caser, b Bounds, t SettlementType, existing []Settlement) (Settlement, bool) {
	sc := p.cfg.Structures
	width := b.MaxX - b.MinX + 1
	height := b.MaxY - b.MinY + 1

	for attempt := 0; attempt < p.maxAttempts(); attempt++ {
		x := b.MinX + rng.Intn(width)
		y := b.MinY + rng.Intn(height)

		if p.tooCloseToSettlements(x, y, t, existing) {
			continue
		}

		biome := p.classify(x, y)
		weight := SettlementPreference(biome)
		if weight == 0 {
			continue
		}
		// Low-preference biomes are sometimes rejected even when eligible.
		if rng.Float64() > float64(weight)/10 {
			continue
		}

		name := settlementName(rng, caser)
		pr := populationRange(sc, t)
		pop := pr.Min
		if pr.Max > pr.Min {
			pop += rng.Intn(pr.Max - pr.Min + 1)
		}

		return Settlement{
			Name:        name,
			Type:        t,
			X:           x,
			Y:           y,
			Size:        SizeForPopulation(pop),
			Population:  pop,
			Description: fmt.Sprintf("%s is a %s with %d inhabitants, situated in the %s.", name, t, pop, biome),
		}, true
	}
	return Settlement{}, false
}

// tooCloseToSettlements applies the stricter of the two types' minimum distances.
func (p *Placer) tooCloseToSettlements(x, y int, t SettlementType, existing []Settlement) bool {
	sc := p.cfg.Structures
	own := minDistance(sc, t)
	for _, s := range existing {
		required := max(own, minDistance(sc, s.Type))
		if Distance(x, y, s.X, s.Y) < float64(required) {
			return true
		}
	}
	return false
}

// PlaceLandmarks scatters landmarks over the region, keeping clear of each other
// and of the given settlements.
func (p *Placer) PlaceLandmarks(r Region, settlements []Settlement) []Landmark {
	area := r.Area()
	if area == 0 {
		return nil
	}
	rng := p.rng(r, landmarkSalt)
	b := r.Bounds()
	count := targetCount(p.cfg.Structures.LandmarkDensity, area)

	var placed []Landmark
	for i := 0; i < count; i++ {
		if l, ok := p.placeLandmark(rng, b, settlements, placed); ok {
			placed = append(placed, l)
		}
	}
	return placed
}

func (p *Placer) placeLandmark(rng *rand.Rand, b Bounds, settlements []Settlement, existing []Landmark) (Landmark, bool) {
	width := b.MaxX - b.MinX + 1
	height := b.MaxY - b.MinY + 1

	for attempt := 0; attempt < p.maxAttempts(); attempt++ {
		x := b.MinX + rng.Intn(width)
		y := b.MinY + rng.Intn(height)

		if !p.landmarkSiteClear(x, y, settlements, existing) {
			continue
		}

		biome := p.classify(x, y)
		kind, ok := pickLandmarkKind(rng, biome)
		if !ok {
			continue
		}
		name := landmarkName(rng, kind)

		return Landmark{
			Name:        name,
			Type:        kind.Type,
			X:           x,
			Y:           y,
			Description: fmt.Sprintf("%s stands in the %s, a place of ancient significance.", name, biome),
		}, true
	}
	return Landmark{}, false
}

func (p *Placer) landmarkSiteClear(x, y int, settlements []Settlement, existing []Landmark) bool {
	sc := p.cfg.Structures
	for _, l := range existing {
		if Distance(x, y, l.X, l.Y) < float64(sc.LandmarkDistance) {
			return false
		}
	}
	// Landmarks stay out of half of each settlement's own exclusion radius.
	for _, s := range settlements {
		if Distance(x, y, s.X, s.Y) < float64(minDistance(sc, s.Type))/2 {
			return false
		}
	}
	return true
}

// pickLandmarkKind draws a landmark type by weight among those suited to the biome.
func pickLandmarkKind(rng *rand.Rand, biome string) (landmarkKind, bool) {
	total := 0
	var suitable []landmarkKind
	for _, k := range landmarkKinds {
		if k.suits(biome) {
			suitable = append(suitable, k)
			total += k.Weight
		}
	}
	if len(suitable) == 0 {
		return landmarkKind{}, false
	}

	v := rng.Float64() * float64(total)
	for _, k := range suitable {
		v -= float64(k.Weight)
		if v <= 0 {
			return k, true
		}
	}
	return suitable[0], true
}

func landmarkName(rng *rand.Rand, k landmarkKind) string {
	if len(k.Names) == 0 {
		return "Mysterious " + strings.ReplaceAll(string(k.Type), "_", " ")
	}
	return k.Names[rng.Intn(len(k.Names))]
}

// settlementName builds "[Prefix ]Root[suffix]" and title-cases each word.
func settlementName(rng *rand.Rand, caser cases.Caser) string {
	usePrefix := rng.Float64() < 0.3
	useSuffix := rng.Float64() < 0.7

	var words []string
	if usePrefix {
		words = append(words, namePrefixes[rng.Intn(len(namePrefixes))])
	}
	root := nameRoots[rng.Intn(len(nameRoots))]
	if useSuffix {
		if suffix := nameSuffixes[rng.Intn(len(nameSuffixes))]; suffix != root {
			root += suffix
		}
	}
	words = append(words, root)
	return caser.String(strings.Join(words, " "))
}
