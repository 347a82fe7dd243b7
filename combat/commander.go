package combat

import (
	"fmt"

	"warfield/meta"
)

// Specialty is the closed set of commander specialties. Aggressive
// specialties boost attack for exactly one unit category; the defensive
// specialty boosts armor for all categories.
type Specialty int

const (
	SpecialtyNone Specialty = iota
	SpecialtyInfantryAssault
	SpecialtyMarksmanship
	SpecialtyCavalryCharge
	SpecialtySiegecraft
	SpecialtyDefender
)

var specialtyNames = map[Specialty]string{
	SpecialtyNone:            "none",
	SpecialtyInfantryAssault: "infantry_assault",
	SpecialtyMarksmanship:    "marksmanship",
	SpecialtyCavalryCharge:   "cavalry_charge",
	SpecialtySiegecraft:      "siegecraft",
	SpecialtyDefender:        "defender",
}

var specialtyIDMap = map[string]Specialty{
	"none":             SpecialtyNone,
	"infantry_assault": SpecialtyInfantryAssault,
	"marksmanship":     SpecialtyMarksmanship,
	"cavalry_charge":   SpecialtyCavalryCharge,
	"siegecraft":       SpecialtySiegecraft,
	"defender":         SpecialtyDefender,
}

func (s Specialty) String() string {
	if name, ok := specialtyNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSpecialty maps a specialty name to its Specialty.
func ParseSpecialty(name string) (Specialty, error) {
	s, ok := specialtyIDMap[name]
	if !ok {
		return 0, fmt.Errorf("unknown commander specialty %q", name)
	}
	return s, nil
}

// targetCategory returns the unit category an aggressive specialty applies to.
func (s Specialty) targetCategory() (UnitCategory, bool) {
	switch s {
	case SpecialtyInfantryAssault:
		return CategoryInfantry, true
	case SpecialtyMarksmanship:
		return CategoryRanged, true
	case SpecialtyCavalryCharge:
		return CategoryCavalry, true
	case SpecialtySiegecraft:
		return CategorySiege, true
	default:
		return 0, false
	}
}

// Commander carries the specialty and level of a side's commander.
type Commander struct {
	Name      string
	Specialty Specialty
	Level     int
}

// AttackBonus returns the fractional attack bonus this commander grants to
// units of the given category. An aggressive specialty contributes to its
// matching category only; a commander without any specialty still grants
// the level bonus as a baseline. A nil commander grants nothing.
func (c *Commander) AttackBonus(category UnitCategory) float64 {
	if c == nil {
		return 0
	}
	if target, ok := c.Specialty.targetCategory(); ok {
		if target != category {
			return 0
		}
		return meta.SPECIALTY_ATTACK_BONUS + float64(c.Level)*meta.LEVEL_BONUS_STEP
	}
	if c.Specialty == SpecialtyNone {
		return float64(c.Level) * meta.LEVEL_BONUS_STEP
	}
	return 0
}

// DefenseBonus returns the fractional armor bonus this commander grants to
// all unit categories. Only the defensive specialty carries a specialty
// bonus; an unspecialized commander grants the level bonus alone.
func (c *Commander) DefenseBonus() float64 {
	if c == nil {
		return 0
	}
	switch c.Specialty {
	case SpecialtyDefender:
		return meta.SPECIALTY_DEFENSE_BONUS + float64(c.Level)*meta.LEVEL_BONUS_STEP
	case SpecialtyNone:
		return float64(c.Level) * meta.LEVEL_BONUS_STEP
	default:
		return 0
	}
}
