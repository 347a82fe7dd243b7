package combat

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DamageKind indexes the damage and armor triples carried by every unit type.
type DamageKind int

const (
	KindMelee DamageKind = iota
	KindPierce
	KindBludgeon
)

var damageKinds = []DamageKind{KindMelee, KindPierce, KindBludgeon}

func (k DamageKind) String() string {
	switch k {
	case KindMelee:
		return "melee"
	case KindPierce:
		return "pierce"
	case KindBludgeon:
		return "bludgeon"
	default:
		return "unknown"
	}
}

// Triple holds one value per DamageKind.
type Triple [3]float64

// UnitCategory groups unit types for commander bonuses, categorical damage
// bonuses and stack tier ordering.
type UnitCategory int

const (
	CategoryInfantry UnitCategory = iota
	CategoryRanged
	CategoryCavalry
	CategorySiege
)

var categoryNames = map[UnitCategory]string{
	CategoryInfantry: "infantry",
	CategoryRanged:   "ranged",
	CategoryCavalry:  "cavalry",
	CategorySiege:    "siege",
}

var categoryIDMap = map[string]UnitCategory{
	"infantry": CategoryInfantry,
	"ranged":   CategoryRanged,
	"cavalry":  CategoryCavalry,
	"siege":    CategorySiege,
}

func (c UnitCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCategory maps a category name to its UnitCategory.
func ParseCategory(name string) (UnitCategory, error) {
	c, ok := categoryIDMap[name]
	if !ok {
		return 0, fmt.Errorf("unknown unit category %q", name)
	}
	return c, nil
}

// UnitType identifies one entry of the static unit catalog.
type UnitType int

const (
	Swordsman UnitType = iota
	Spearman
	Archer
	Crossbowman
	Horseman
	Knight
	Catapult
	Ram
)

var unitTypeNames = []string{
	"swordsman", "spearman", "archer", "crossbowman",
	"horseman", "knight", "catapult", "ram",
}

var unitTypeIDMap = map[string]UnitType{
	"swordsman": Swordsman, "spearman": Spearman, "archer": Archer,
	"crossbowman": Crossbowman, "horseman": Horseman, "knight": Knight,
	"catapult": Catapult, "ram": Ram,
}

func (t UnitType) String() string {
	if t < 0 || int(t) >= len(unitTypeNames) {
		return fmt.Sprintf("unit(%d)", int(t))
	}
	return unitTypeNames[t]
}

// MarshalText makes unit types render as names in JSON payloads.
func (t UnitType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *UnitType) UnmarshalText(text []byte) error {
	parsed, err := ParseUnitType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseUnitType maps a unit name to its UnitType.
func ParseUnitType(name string) (UnitType, error) {
	t, ok := unitTypeIDMap[name]
	if !ok {
		return 0, fmt.Errorf("unknown unit type %q", name)
	}
	return t, nil
}

// CategoryBonus is an additive damage increment applied when the opposing
// composition contains units of the target category.
type CategoryBonus struct {
	Target UnitCategory
	Amount float64
}

// UnitTypeStats is one immutable catalog entry. Damage values are rates per
// second of simulated time; armor is subtracted per kind before the chip
// damage floor applies.
type UnitTypeStats struct {
	Name     string
	Category UnitCategory
	HP       float64
	Damage   Triple
	Armor    Triple
	Bonuses  []CategoryBonus
}

// Catalog is the static unit type table. Never mutated after load.
type Catalog struct {
	stats map[UnitType]UnitTypeStats
}

// Stats returns the catalog entry for a unit type.
func (c *Catalog) Stats(t UnitType) (UnitTypeStats, bool) {
	s, ok := c.stats[t]
	return s, ok
}

// Types returns all known unit types in sorted order.
func (c *Catalog) Types() []UnitType {
	types := make([]UnitType, 0, len(c.stats))
	for t := range c.stats {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// DefaultCatalog returns the built-in unit type table.
func DefaultCatalog() *Catalog {
	return &Catalog{stats: map[UnitType]UnitTypeStats{
		Swordsman: {
			Name: "swordsman", Category: CategoryInfantry, HP: 60,
			Damage: Triple{8, 0, 2}, Armor: Triple{4, 3, 2},
		},
		Spearman: {
			Name: "spearman", Category: CategoryInfantry, HP: 55,
			Damage: Triple{2, 7, 0}, Armor: Triple{3, 4, 2},
			Bonuses: []CategoryBonus{{Target: CategoryCavalry, Amount: 4}},
		},
		Archer: {
			Name: "archer", Category: CategoryRanged, HP: 35,
			Damage: Triple{1, 9, 0}, Armor: Triple{1, 2, 1},
		},
		Crossbowman: {
			Name: "crossbowman", Category: CategoryRanged, HP: 40,
			Damage: Triple{1, 11, 0}, Armor: Triple{2, 2, 1},
			Bonuses: []CategoryBonus{{Target: CategoryInfantry, Amount: 3}},
		},
		Horseman: {
			Name: "horseman", Category: CategoryCavalry, HP: 80,
			Damage: Triple{9, 2, 0}, Armor: Triple{3, 2, 2},
			Bonuses: []CategoryBonus{{Target: CategoryRanged, Amount: 5}},
		},
		Knight: {
			Name: "knight", Category: CategoryCavalry, HP: 110,
			Damage: Triple{12, 3, 0}, Armor: Triple{6, 5, 3},
		},
		Catapult: {
			Name: "catapult", Category: CategorySiege, HP: 50,
			Damage: Triple{0, 0, 14}, Armor: Triple{1, 1, 1},
		},
		Ram: {
			Name: "ram", Category: CategorySiege, HP: 90,
			Damage: Triple{0, 0, 6}, Armor: Triple{5, 5, 4},
		},
	}}
}

type catalogFileEntry struct {
	Category string             `yaml:"category"`
	HP       float64            `yaml:"hp"`
	Damage   map[string]float64 `yaml:"damage"`
	Armor    map[string]float64 `yaml:"armor"`
	Bonuses  map[string]float64 `yaml:"bonuses"`
}

// LoadCatalog reads a unit table from a YAML file. Entries override the
// built-in defaults per unit type; unlisted types keep their defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit catalog: %w", err)
	}

	var entries map[string]catalogFileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse unit catalog: %w", err)
	}

	catalog := DefaultCatalog()
	for name, entry := range entries {
		unitType, err := ParseUnitType(name)
		if err != nil {
			return nil, fmt.Errorf("unit catalog: %w", err)
		}
		category, err := ParseCategory(entry.Category)
		if err != nil {
			return nil, fmt.Errorf("unit catalog %q: %w", name, err)
		}

		stats := UnitTypeStats{Name: name, Category: category, HP: entry.HP}
		if stats.Damage, err = tripleFromMap(entry.Damage); err != nil {
			return nil, fmt.Errorf("unit catalog %q damage: %w", name, err)
		}
		if stats.Armor, err = tripleFromMap(entry.Armor); err != nil {
			return nil, fmt.Errorf("unit catalog %q armor: %w", name, err)
		}
		for target, amount := range entry.Bonuses {
			targetCategory, err := ParseCategory(target)
			if err != nil {
				return nil, fmt.Errorf("unit catalog %q bonus: %w", name, err)
			}
			stats.Bonuses = append(stats.Bonuses, CategoryBonus{Target: targetCategory, Amount: amount})
		}
		// Sorted so later damage math never depends on YAML map order.
		sort.Slice(stats.Bonuses, func(i, j int) bool {
			return stats.Bonuses[i].Target < stats.Bonuses[j].Target
		})

		catalog.stats[unitType] = stats
	}
	return catalog, nil
}

func tripleFromMap(values map[string]float64) (Triple, error) {
	var triple Triple
	for name, value := range values {
		switch name {
		case "melee":
			triple[KindMelee] = value
		case "pierce":
			triple[KindPierce] = value
		case "bludgeon":
			triple[KindBludgeon] = value
		default:
			return triple, fmt.Errorf("unknown damage kind %q", name)
		}
	}
	return triple, nil
}
