package world

// SettlementType categorizes settlement scale.
type SettlementType string

const (
	SettlementCity    SettlementType = "city"
	SettlementTown    SettlementType = "town"
	SettlementVillage SettlementType = "village"
	SettlementHamlet  SettlementType = "hamlet"
)

// SettlementTypes lists every type, largest first. Placement runs in this order.
var SettlementTypes = []SettlementType{SettlementCity, SettlementTown, SettlementVillage, SettlementHamlet}

// SettlementSize is derived from population.
type SettlementSize string

const (
	SizeLarge  SettlementSize = "large"  // 5,000+
	SizeMedium SettlementSize = "medium" // 1,000–4,999
	SizeSmall  SettlementSize = "small"  // 200–999
	SizeTiny   SettlementSize = "tiny"
)

// SizeForPopulation buckets a population into a settlement size.
func SizeForPopulation(pop int) SettlementSize {
	switch {
	case pop >= 5000:
		return SizeLarge
	case pop >= 1000:
		return SizeMedium
	case pop >= 200:
		return SizeSmall
	default:
		return SizeTiny
	}
}

// LandmarkType categorizes unpopulated points of interest.
type LandmarkType string

const (
	LandmarkRuins           LandmarkType = "ruins"
	LandmarkTower           LandmarkType = "tower"
	LandmarkShrine          LandmarkType = "shrine"
	LandmarkBridge          LandmarkType = "bridge"
	LandmarkCave            LandmarkType = "cave"
	LandmarkStandingStones  LandmarkType = "standing_stones"
	LandmarkAncientTree     LandmarkType = "ancient_tree"
	LandmarkAbandonedMine   LandmarkType = "abandoned_mine"
	LandmarkOldBattlefield  LandmarkType = "old_battlefield"
	LandmarkForgottenTemple LandmarkType = "forgotten_temple"
	LandmarkWatchtower      LandmarkType = "watchtower"
	LandmarkStoneCircle     LandmarkType = "stone_circle"
)

// Settlement is a populated place. Static once placed.
type Settlement struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Type        SettlementType `json:"type" db:"type"`
	X           int            `json:"x" db:"x"`
	Y           int            `json:"y" db:"y"`
	Size        SettlementSize `json:"size" db:"size"`
	Population  int            `json:"population" db:"population"`
	Description string         `json:"description" db:"description"`
}

// Landmark is an unpopulated point of interest. Static once placed.
type Landmark struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Type        LandmarkType `json:"type" db:"type"`
	X           int          `json:"x" db:"x"`
	Y           int          `json:"y" db:"y"`
	Description string       `json:"description" db:"description"`
}

// Structure is anything placed on the map that a point lookup can return.
type Structure interface {
	Position() (x, y int)
	StructureName() string
	StructureType() string
}

func (s *Settlement) Position() (int, int) { return s.X, s.Y }
func (s *Settlement) StructureName() string { return s.Name }
func (s *Settlement) StructureType() string { return string(s.Type) }
func (l *Landmark) Position() (int, int) { return l.X, l.Y }
func (l *Landmark) StructureName() string { return l.Name }
func (l *Landmark) StructureType() string { return string(l.Type) }
