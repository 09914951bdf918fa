package world

import "github.com/talgya/worldgen/internal/config"

// settlementPreference weights a biome's suitability for a settlement on a 0–10
// scale. Biomes not listed (ocean, mountains, tundra, swamp, jungle, rainforest,
// and the settlement biomes themselves) never host one.
var settlementPreference = map[string]int{
	"plains":  10,
	"hills":   8,
	"forest":  6,
	"savanna": 5,
	"beach":   4,
	"taiga":   3,
	"lake":    2,
	"desert":  1,
}

// SettlementPreference returns the suitability weight of a biome, 0 when unsuitable.
func SettlementPreference(biome string) int {
	return settlementPreference[biome]
}

type landmarkKind struct {
	Type   LandmarkType
	Weight int
	Biomes []string // Empty means any biome
	Names  []string
}

// landmarkKinds is scanned in order for the weighted type draw.
var landmarkKinds = []landmarkKind{
	{LandmarkRuins, 15, []string{"plains", "hills", "forest", "desert"}, []string{
		"Ancient Ruins", "Crumbling Keep", "Fallen Tower", "Lost City", "Broken Walls",
		"Ruined Palace", "Forgotten Fortress", "Collapsed Temple", "Old Battlements",
	}},
	{LandmarkTower, 10, []string{"hills", "plains", "mountains"}, []string{
		"Lonely Tower", "Watch Tower", "Wizard's Tower", "Bell Tower", "Signal Tower",
		"Tall Spire", "Ancient Lighthouse", "Crow's Perch", "Sky Needle",
	}},
	{LandmarkShrine, 8, []string{"forest", "mountains", "hills"}, []string{
		"Forgotten Shrine", "Roadside Shrine", "Ancient Altar", "Sacred Grove",
		"Holy Spring", "Pilgrim's Rest", "Divine Marker", "Blessed Stone",
	}},
	{LandmarkCave, 12, []string{"mountains", "hills"}, []string{
		"Deep Cave", "Hidden Grotto", "Echo Chamber", "Crystal Cave", "Bear's Den",
		"Shadowy Depths", "Whispering Cave", "Secret Hollow", "Dark Passage",
	}},
	{LandmarkStandingStones, 6, []string{"plains", "hills", "tundra"}, []string{
		"Standing Stones", "Ancient Monoliths", "Stone Sentinels", "Weathered Pillars",
		"Sacred Stones", "Mystic Markers", "Old Guardians", "Silent Watchers",
	}},
	{LandmarkAncientTree, 8, []string{"forest", "jungle", "rainforest"}, []string{
		"Ancient Oak", "Elder Tree", "Great Willow", "Sacred Grove", "Wise Old Tree",
		"Giant Redwood", "Millennium Pine", "Mother Tree", "World Tree",
	}},
	{LandmarkAbandonedMine, 7, []string{"mountains", "hills"}, []string{
		"Old Mine", "Abandoned Shaft", "Dark Pit", "Forgotten Dig", "Lost Mine",
		"Deep Quarry", "Empty Tunnels", "Worked-out Mine", "Ghost Mine",
	}},
	{LandmarkOldBattlefield, 5, []string{"plains", "hills"}, []string{
		"Old Battlefield", "Blood Plain", "War Memorial", "Fallen Heroes' Field",
		"Last Stand", "Battle Scars", "Bone Field", "Victory Plain", "Mourning Ground",
	}},
	{LandmarkForgottenTemple, 4, []string{"jungle", "rainforest", "forest"}, []string{
		"Forgotten Temple", "Lost Sanctuary", "Overgrown Temple", "Ruined Cathedral",
		"Ancient Chapel", "Sacred Ruins", "Divine Remnants", "Holy Wreckage",
	}},
	{LandmarkWatchtower, 9, []string{"hills", "mountains"}, []string{
		"Old Watchtower", "Border Post", "Guard Tower", "Sentinel Point", "Watch Keep",
		"Signal Post", "Sentry Tower", "Lookout Point",
	}},
	{LandmarkStoneCircle, 6, []string{"plains", "hills"}, []string{
		"Stone Circle", "Druid Ring", "Ancient Circle", "Sacred Ring", "Mystic Circle",
		"Ritual Stones", "Moon Circle", "Star Ring", "Elder Circle",
	}},
	{LandmarkBridge, 10, []string{"lake", "beach"}, []string{
		"Old Bridge", "Stone Bridge", "Wooden Bridge", "Rope Bridge", "Ancient Crossing",
		"Forgotten Span", "Moss-covered Bridge", "Crumbling Arch", "Lost Passage",
	}},
}

func (k landmarkKind) suits(biome string) bool {
	if len(k.Biomes) == 0 {
		return true
	}
	for _, b := range k.Biomes {
		if b == biome {
			return true
		}
	}
	return false
}

var namePrefixes = []string{
	"north", "south", "east", "west", "upper", "lower", "old", "new",
	"great", "little", "high", "deep", "white", "red", "green", "blue",
	"stone", "iron", "gold", "silver", "dark", "bright", "fair", "grim",
}

var nameRoots = []string{
	"haven", "ford", "bridge", "gate", "brook", "hill", "vale", "dale",
	"wood", "field", "marsh", "moor", "ridge", "peak", "bay", "port",
	"mill", "well", "spring", "fall", "glen", "hollow", "bend", "cross",
	"fort", "burg", "wick", "ton", "ham", "stead", "thorpe", "by",
}

var nameSuffixes = []string{
	"ton", "ham", "burg", "wick", "ford", "haven", "shire", "land",
	"field", "wood", "hill", "vale", "dale", "moor", "ridge", "bay",
}

func minDistance(cfg config.StructureConfig, t SettlementType) int {
	switch t {
	case SettlementCity:
		return cfg.MinDistance.City
	case SettlementTown:
		return cfg.MinDistance.Town
	case SettlementVillage:
		return cfg.MinDistance.Village
	default:
		return cfg.MinDistance.Hamlet
	}
}

func density(cfg config.StructureConfig, t SettlementType) int {
	switch t {
	case SettlementCity:
		return cfg.Density.City
	case SettlementTown:
		return cfg.Density.Town
	case SettlementVillage:
		return cfg.Density.Village
	default:
		return cfg.Density.Hamlet
	}
}

func populationRange(cfg config.StructureConfig, t SettlementType) config.PopulationRange {
	switch t {
	case SettlementCity:
		return cfg.Population.City
	case SettlementTown:
		return cfg.Population.Town
	case SettlementVillage:
		return cfg.Population.Village
	default:
		return cfg.Population.Hamlet
	}
}
