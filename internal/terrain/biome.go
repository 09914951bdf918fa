package terrain

// Range is an inclusive [Min, Max] interval on one terrain axis.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Mid returns the interval midpoint.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Rule describes one biome and the terrain it claims.
type Rule struct {
	ID          int
	Name        string
	Description string
	Letter      string // Single glyph for text maps
	Color       string // Hex color for map rendering
	Priority    float64
	Height      Range
	Temperature Range
	Moisture    Range
	Settlement  bool // Realized only where the settlement override allows it
}

// FallbackBiome is returned when no rule claims a sample.
const FallbackBiome = "plains"

// Biome names.
const (
	BiomeOcean      = "ocean"
	BiomeLake       = "lake"
	BiomeBeach      = "beach"
	BiomeTundra     = "tundra"
	BiomeTaiga      = "taiga"
	BiomeMountains  = "mountains"
	BiomeHills      = "hills"
	BiomeDesert     = "desert"
	BiomeSavanna    = "savanna"
	BiomePlains     = "plains"
	BiomeForest     = "forest"
	BiomeJungle     = "jungle"
	BiomeRainforest = "rainforest"
	BiomeSwamp      = "swamp"
	BiomeVillage    = "village"
	BiomeCity       = "city"
)

// rules is the static taxonomy. Order matters: on equal scores the earlier rule wins.
var rules = []Rule{
	{ID: 1, Name: BiomeOcean, Description: "Deep ocean waters.", Letter: "O", Color: "#1565C0", Priority: 10,
		Height: Range{0.0, 0.25}, Temperature: Range{0.0, 1.0}, Moisture: Range{0.0, 1.0}},
	{ID: 2, Name: BiomeLake, Description: "A freshwater lake.", Letter: "L", Color: "#42A5F5", Priority: 9,
		Height: Range{0.25, 0.35}, Temperature: Range{0.0, 1.0}, Moisture: Range{0.7, 1.0}},
	{ID: 3, Name: BiomeBeach, Description: "Sandy beach along the coastline.", Letter: "B", Color: "#F5DEB3", Priority: 8,
		Height: Range{0.3, 0.4}, Temperature: Range{0.4, 0.9}, Moisture: Range{0.0, 0.6}},
	{ID: 4, Name: BiomeTundra, Description: "Frozen tundra with sparse vegetation.", Letter: "T", Color: "#E8F4F8", Priority: 7,
		Height: Range{0.3, 0.7}, Temperature: Range{0.0, 0.2}, Moisture: Range{0.0, 0.5}},
	{ID: 5, Name: BiomeTaiga, Description: "Coniferous forest of the north.", Letter: "A", Color: "#2E5266", Priority: 7,
		Height: Range{0.3, 0.7}, Temperature: Range{0.1, 0.3}, Moisture: Range{0.4, 0.8}},
	{ID: 6, Name: BiomeMountains, Description: "Towering mountains with rocky peaks.", Letter: "M", Color: "#8D6E63", Priority: 9,
		Height: Range{0.8, 1.0}, Temperature: Range{0.0, 0.4}, Moisture: Range{0.0, 1.0}},
	{ID: 7, Name: BiomeHills, Description: "Rolling hills and gentle slopes.", Letter: "H", Color: "#7CB342", Priority: 6,
		Height: Range{0.6, 0.8}, Temperature: Range{0.2, 0.7}, Moisture: Range{0.0, 1.0}},
	{ID: 8, Name: BiomeDesert, Description: "A vast, arid desert.", Letter: "D", Color: "#FDD835", Priority: 7,
		Height: Range{0.3, 0.7}, Temperature: Range{0.7, 1.0}, Moisture: Range{0.0, 0.3}},
	{ID: 9, Name: BiomeSavanna, Description: "Open grassland with scattered trees.", Letter: "S", Color: "#FF8F00", Priority: 6,
		Height: Range{0.3, 0.6}, Temperature: Range{0.6, 0.9}, Moisture: Range{0.2, 0.5}},
	{ID: 10, Name: BiomePlains, Description: "Open plains with tall grass.", Letter: "P", Color: "#9CCC65", Priority: 5,
		Height: Range{0.35, 0.6}, Temperature: Range{0.4, 0.7}, Moisture: Range{0.3, 0.6}},
	{ID: 11, Name: BiomeForest, Description: "A dense forest with tall trees.", Letter: "F", Color: "#388E3C", Priority: 6,
		Height: Range{0.35, 0.7}, Temperature: Range{0.3, 0.7}, Moisture: Range{0.5, 0.8}},
	{ID: 12, Name: BiomeJungle, Description: "Dense tropical jungle with exotic wildlife.", Letter: "J", Color: "#2E7D32", Priority: 7,
		Height: Range{0.3, 0.6}, Temperature: Range{0.7, 1.0}, Moisture: Range{0.7, 1.0}},
	{ID: 13, Name: BiomeRainforest, Description: "Lush rainforest teeming with life.", Letter: "R", Color: "#1B5E20", Priority: 7,
		Height: Range{0.35, 0.65}, Temperature: Range{0.6, 0.9}, Moisture: Range{0.8, 1.0}},
	{ID: 14, Name: BiomeSwamp, Description: "Murky swampland with twisted trees.", Letter: "W", Color: "#4A148C", Priority: 7,
		Height: Range{0.25, 0.45}, Temperature: Range{0.4, 0.8}, Moisture: Range{0.8, 1.0}},
	{ID: 15, Name: BiomeVillage, Description: "A small village with a few houses.", Letter: "V", Color: "#D7CCC8", Priority: 3, Settlement: true,
		Height: Range{0.35, 0.65}, Temperature: Range{0.3, 0.8}, Moisture: Range{0.3, 0.7}},
	{ID: 16, Name: BiomeCity, Description: "A bustling city full of life.", Letter: "C", Color: "#616161", Priority: 2, Settlement: true,
		Height: Range{0.35, 0.65}, Temperature: Range{0.3, 0.8}, Moisture: Range{0.3, 0.7}},
}

var rulesByName = func() map[string]Rule {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.Name] = r
	}
	return m
}()

// Rules returns a copy of the biome table in priority-scan order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// RuleByName looks up a biome rule.
func RuleByName(name string) (Rule, bool) {
	r, ok := rulesByName[name]
	return r, ok
}

// IsSettlement reports whether the biome is a settlement biome.
func IsSettlement(name string) bool {
	return rulesByName[name].Settlement
}

// Letter returns the map glyph for a biome, "?" when unknown.
func Letter(name string) string {
	if r, ok := rulesByName[name]; ok {
		return r.Letter
	}
	return "?"
}

// Color returns the map color for a biome, black when unknown.
func Color(name string) string {
	if r, ok := rulesByName[name]; ok {
		return r.Color
	}
	return "#000000"
}

// Classify picks the best-scoring biome for a sample. It never returns "".
func Classify(s Sample) string {
	return classify(s, true)
}

// ClassifyNatural is Classify restricted to non-settlement biomes.
func ClassifyNatural(s Sample) string {
	return classify(s, false)
}

func classify(s Sample, withSettlements bool) string {
	best := ""
	bestScore := -1.0
	for i := range rules {
		r := &rules[i]
		if r.Settlement && !withSettlements {
			continue
		}
		score := Score(s, *r)
		// Strict comparison keeps the first rule on ties.
		if score > bestScore {
			bestScore = score
			best = r.Name
		}
	}
	if best == "" {
		return FallbackBiome
	}
	return best
}

// Score rates how well a sample fits a rule: -1 when any axis is out of range,
// otherwise closeness to the range midpoints weighted by priority.
func Score(s Sample, r Rule) float64 {
	if !r.Height.Contains(s.Height) || !r.Temperature.Contains(s.Temperature) || !r.Moisture.Contains(s.Moisture) {
		return -1
	}
	dh := abs(s.Height - r.Height.Mid())
	dt := abs(s.Temperature - r.Temperature.Mid())
	dm := abs(s.Moisture - r.Moisture.Mid())
	centerScore := 1 - (dh+dt+dm)/3
	return centerScore * r.Priority
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
