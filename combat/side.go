package combat

import (
	"fmt"
	"sort"
)

// Roster maps unit types to counts, as handed over by the army layer.
type Roster map[UnitType]int

// Army is a roster snapshot plus ownership metadata, the engine's input
// contract with the army layer.
type Army struct {
	Name      string
	Owner     string
	Units     Roster
	Commander *Commander
}

// SideState is the mutable bookkeeping for one side of one pairing. It is
// owned exclusively by that pairing for its lifetime.
//
// Damage allocation policy: incoming damage is split across unit types
// proportionally to each type's share of the side's remaining HP, iterated
// in sorted type order so map iteration order never leaks into results.
// Fractional damage within a partially-damaged type carries across ticks;
// a type loses one unit per whole unit-HP threshold consumed.
type SideState struct {
	Name      string
	Owner     string
	Commander *Commander

	catalog *Catalog
	initial map[UnitType]int     // immutable once set
	live    map[UnitType]int     // mutated every tick
	dealt   map[UnitType]float64 // cumulative damage dealt, by dealing type
	carry   map[UnitType]float64 // damage absorbed by the type's current front unit

	initialTotalHP float64
}

// NewSideState validates a roster against the catalog and snapshots it.
// Unknown types and negative counts are rejected; a roster whose counts sum
// to zero is valid and resolves as a walkover at pairing start.
func NewSideState(army Army, catalog *Catalog) (*SideState, error) {
	if len(army.Units) == 0 {
		return nil, fmt.Errorf("side %q has an empty roster", army.Name)
	}

	s := &SideState{
		Name:      army.Name,
		Owner:     army.Owner,
		Commander: army.Commander,
		catalog:   catalog,
		initial:   make(map[UnitType]int, len(army.Units)),
		live:      make(map[UnitType]int, len(army.Units)),
		dealt:     make(map[UnitType]float64),
		carry:     make(map[UnitType]float64),
	}

	for unitType, count := range army.Units {
		stats, ok := catalog.Stats(unitType)
		if !ok {
			return nil, fmt.Errorf("side %q has unknown unit type %q", army.Name, unitType)
		}
		if count < 0 {
			return nil, fmt.Errorf("side %q has negative count %d for %q", army.Name, count, unitType)
		}
		s.initial[unitType] = count
		s.live[unitType] = count
		s.initialTotalHP += float64(count) * stats.HP
	}
	return s, nil
}

// InitialTotalHP is the fixed denominator for progress and relative
// strength comparisons.
func (s *SideState) InitialTotalHP() float64 {
	return s.initialTotalHP
}

// CurrentTotalHP sums the remaining HP across all live unit types.
func (s *SideState) CurrentTotalHP() float64 {
	total := 0.0
	for unitType, count := range s.live {
		stats, _ := s.catalog.Stats(unitType)
		total += float64(count)*stats.HP - s.carry[unitType]
	}
	if total < 0 {
		return 0
	}
	return total
}

// Alive reports whether the side still has units standing.
func (s *SideState) Alive() bool {
	for _, count := range s.live {
		if count > 0 {
			return true
		}
	}
	return false
}

// types returns the side's unit types in sorted order.
func (s *SideState) types() []UnitType {
	types := make([]UnitType, 0, len(s.initial))
	for t := range s.initial {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// remainingHP returns the live HP pool of one unit type.
func (s *SideState) remainingHP(unitType UnitType) float64 {
	stats, _ := s.catalog.Stats(unitType)
	pool := float64(s.live[unitType])*stats.HP - s.carry[unitType]
	if pool < 0 {
		return 0
	}
	return pool
}

// categoryHPShare returns the fraction of the side's remaining HP held by
// units of the given category.
func (s *SideState) categoryHPShare(category UnitCategory) float64 {
	total := s.CurrentTotalHP()
	if total <= 0 {
		return 0
	}
	share := 0.0
	for _, unitType := range s.types() {
		stats, _ := s.catalog.Stats(unitType)
		if stats.Category == category {
			share += s.remainingHP(unitType)
		}
	}
	return share / total
}

// effectiveArmor returns the side's HP-weighted armor for one damage kind.
func (s *SideState) effectiveArmor(kind DamageKind) float64 {
	total := s.CurrentTotalHP()
	if total <= 0 {
		return 0
	}
	armor := 0.0
	for _, unitType := range s.types() {
		stats, _ := s.catalog.Stats(unitType)
		armor += stats.Armor[kind] * s.remainingHP(unitType) / total
	}
	return armor
}

// ApplyDamage distributes incoming damage across the side's unit types and
// converts HP loss into whole-unit casualties. It returns the units lost
// per type in this application.
func (s *SideState) ApplyDamage(total float64) map[UnitType]int {
	losses := make(map[UnitType]int)
	if total <= 0 {
		return losses
	}

	pool := s.CurrentTotalHP()
	if pool <= 0 {
		return losses
	}
	if total > pool {
		total = pool
	}

	for _, unitType := range s.types() {
		typePool := s.remainingHP(unitType)
		if typePool <= 0 {
			continue
		}
		stats, _ := s.catalog.Stats(unitType)

		allocated := total * typePool / pool
		if allocated >= typePool {
			losses[unitType] = s.live[unitType]
			s.live[unitType] = 0
			s.carry[unitType] = 0
			continue
		}

		s.carry[unitType] += allocated
		killed := int(s.carry[unitType] / stats.HP)
		if killed > s.live[unitType] {
			killed = s.live[unitType]
		}
		if killed > 0 {
			s.live[unitType] -= killed
			s.carry[unitType] -= float64(killed) * stats.HP
			losses[unitType] = killed
		}
		if s.live[unitType] == 0 {
			s.carry[unitType] = 0
		}
	}
	return losses
}

// recordDealt accumulates damage dealt by one of the side's unit types.
func (s *SideState) recordDealt(unitType UnitType, amount float64) {
	s.dealt[unitType] += amount
}

// InitialCounts returns a copy of the composition snapshot taken at combat
// start.
func (s *SideState) InitialCounts() map[UnitType]int {
	counts := make(map[UnitType]int, len(s.initial))
	for t, c := range s.initial {
		counts[t] = c
	}
	return counts
}

// LiveCounts returns a copy of the current composition.
func (s *SideState) LiveCounts() map[UnitType]int {
	counts := make(map[UnitType]int, len(s.live))
	for t, c := range s.live {
		counts[t] = c
	}
	return counts
}

// DamageDealt returns a copy of the cumulative damage dealt per unit type.
func (s *SideState) DamageDealt() map[UnitType]float64 {
	dealt := make(map[UnitType]float64, len(s.dealt))
	for t, d := range s.dealt {
		dealt[t] = d
	}
	return dealt
}

// Casualties returns the total units lost so far.
func (s *SideState) Casualties() int {
	lost := 0
	for unitType, count := range s.initial {
		lost += count - s.live[unitType]
	}
	return lost
}
