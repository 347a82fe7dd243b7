package combat

import (
	"fmt"
)

// Tier is a priority bracket controlling stack pairing order: ranged units
// engage first, then the melee categories, then siege.
type Tier int

const (
	TierRanged Tier = iota
	TierMelee
	TierSiege
)

var tierOrder = []Tier{TierRanged, TierMelee, TierSiege}

func (t Tier) String() string {
	switch t {
	case TierRanged:
		return "ranged"
	case TierMelee:
		return "melee"
	case TierSiege:
		return "siege"
	default:
		return "unknown"
	}
}

func tierOf(category UnitCategory) Tier {
	switch category {
	case CategoryRanged:
		return TierRanged
	case CategorySiege:
		return TierSiege
	default:
		return TierMelee
	}
}

// stackPairing ties an active pairing to the armies its casualties are
// written back to when the tier completes.
type stackPairing struct {
	pairing  *Pairing
	attacker *Army
	defender *Army
}

// Stack coordinates stacked combat between 3+ co-located armies. Rather
// than an N-way free-for-all, units are grouped into tiers and, within the
// active tier, attacker and defender armies are paired round-robin in army
// order. Each army's tier units are partitioned across the pairings it
// appears in, so no unit is allocated to two simultaneous pairings. All
// pairings write back into the shared army rosters when their tier
// completes, so a type wiped out early is gone for every later tier.
type Stack struct {
	ID         string
	Location   Hex
	Terrain    Terrain
	Entrenched bool

	catalog *Catalog
	tuning  Tuning

	attackers []*Army
	defenders []*Army

	tierIdx   int
	active    []stackPairing
	completed []*Pairing
	finished  bool
}

// NewStack snapshots the army references and opens the first tier that has
// units on both sides.
func NewStack(id string, location Hex, terrain Terrain, entrenched bool,
	attackers, defenders []*Army, catalog *Catalog, tuning Tuning) (*Stack, error) {

	if len(attackers) == 0 || len(defenders) == 0 {
		return nil, fmt.Errorf("stack needs armies on both sides")
	}

	s := &Stack{
		ID:         id,
		Location:   location,
		Terrain:    terrain,
		Entrenched: entrenched,
		catalog:    catalog,
		tuning:     tuning,
		attackers:  attackers,
		defenders:  defenders,
		tierIdx:    -1,
	}
	s.beginNextTier()
	return s, nil
}

// CurrentTier returns the tier currently engaged.
func (s *Stack) CurrentTier() Tier {
	if s.tierIdx < 0 || s.tierIdx >= len(tierOrder) {
		return tierOrder[len(tierOrder)-1]
	}
	return tierOrder[s.tierIdx]
}

// ActivePairings lists the in-progress pairings of the current tier.
func (s *Stack) ActivePairings() []*Pairing {
	pairings := make([]*Pairing, 0, len(s.active))
	for _, sp := range s.active {
		if !sp.pairing.Done() {
			pairings = append(pairings, sp.pairing)
		}
	}
	return pairings
}

// CompletedPairings lists every terminal pairing across all tiers so far.
func (s *Stack) CompletedPairings() []*Pairing {
	pairings := make([]*Pairing, len(s.completed))
	copy(pairings, s.completed)
	return pairings
}

// Done reports whether all pairings across all tiers are complete.
func (s *Stack) Done() bool { return s.finished }

// Advance steps every active pairing of the current tier. A pairing
// completing does not end the stack; the stack ends only when all tiers
// are exhausted.
func (s *Stack) Advance(dt float64) {
	if s.finished {
		return
	}
	allDone := true
	for _, sp := range s.active {
		sp.pairing.Advance(dt)
		if !sp.pairing.Done() {
			allDone = false
		}
	}
	if allDone {
		s.closeTier()
		s.beginNextTier()
	}
}

// Cancel terminates all in-progress pairings and closes the stack,
// committing casualties accumulated so far.
func (s *Stack) Cancel() {
	if s.finished {
		return
	}
	for _, sp := range s.active {
		sp.pairing.Cancel()
	}
	s.closeTier()
	s.finished = true
	s.active = nil
}

// closeTier writes pairing casualties back into the shared army rosters.
func (s *Stack) closeTier() {
	for _, sp := range s.active {
		writeBack(sp.attacker, sp.pairing.Attacker)
		writeBack(sp.defender, sp.pairing.Defender)
		s.completed = append(s.completed, sp.pairing)
	}
	s.active = nil
}

func writeBack(army *Army, side *SideState) {
	live := side.LiveCounts()
	for unitType, initial := range side.InitialCounts() {
		army.Units[unitType] -= initial - live[unitType]
	}
}

// beginNextTier advances to the next tier with units on both sides and
// builds its pairings. Tiers where either side has nothing to commit are
// skipped. A stack whose sides never shared a tier still resolves through
// a standoff pairing, so every started combat yields a record.
func (s *Stack) beginNextTier() {
	for s.tierIdx+1 < len(tierOrder) {
		s.tierIdx++
		tier := tierOrder[s.tierIdx]

		attackers := s.armiesWithTierUnits(s.attackers, tier)
		defenders := s.armiesWithTierUnits(s.defenders, tier)
		if len(attackers) == 0 || len(defenders) == 0 {
			continue
		}

		s.active = s.buildPairings(tier, attackers, defenders)
		return
	}
	if len(s.completed) == 0 {
		s.resolveStandoff()
	}
	s.finished = true
}

// resolveStandoff records the terminal pairing for a stack that built no
// tier pairings at all: a zero-strength side loses by walkover, and two
// standing forces that cannot reach each other part in a draw.
func (s *Stack) resolveStandoff() {
	attackerSide, err := NewSideState(mergeSide(s.attackers), s.catalog)
	if err != nil {
		return
	}
	defenderSide, err := NewSideState(mergeSide(s.defenders), s.catalog)
	if err != nil {
		return
	}

	p := NewPairing(fmt.Sprintf("%s/standoff", s.ID), s.Location, s.Terrain,
		s.Entrenched, attackerSide, defenderSide, s.catalog, s.tuning)
	if !p.Done() {
		p.terminate(OutcomeDraw)
	}
	s.completed = append(s.completed, p)
}

// mergeSide folds a side's armies into one roster. The first army lends
// its name and owner to the merged side.
func mergeSide(armies []*Army) Army {
	merged := Army{Name: armies[0].Name, Owner: armies[0].Owner, Units: Roster{}}
	for _, army := range armies {
		for unitType, count := range army.Units {
			if count < 0 {
				continue
			}
			merged.Units[unitType] += count
		}
	}
	return merged
}

func (s *Stack) armiesWithTierUnits(armies []*Army, tier Tier) []*Army {
	withUnits := []*Army{}
	for _, army := range armies {
		if len(s.tierRoster(army, tier)) > 0 {
			withUnits = append(withUnits, army)
		}
	}
	return withUnits
}

// tierRoster returns the part of an army's roster belonging to a tier.
func (s *Stack) tierRoster(army *Army, tier Tier) Roster {
	roster := Roster{}
	for unitType, count := range army.Units {
		if count <= 0 {
			continue
		}
		stats, ok := s.catalog.Stats(unitType)
		if !ok {
			continue
		}
		if tierOf(stats.Category) == tier {
			roster[unitType] = count
		}
	}
	return roster
}

// buildPairings pairs attacker and defender armies round-robin and splits
// any army reused across several pairings into disjoint roster shares.
func (s *Stack) buildPairings(tier Tier, attackers, defenders []*Army) []stackPairing {
	pairCount := len(attackers)
	if len(defenders) > pairCount {
		pairCount = len(defenders)
	}

	attackerShares := splitTierRosters(s, attackers, tier, pairCount)
	defenderShares := splitTierRosters(s, defenders, tier, pairCount)

	pairings := make([]stackPairing, 0, pairCount)
	for k := 0; k < pairCount; k++ {
		attackerArmy := attackers[k%len(attackers)]
		defenderArmy := defenders[k%len(defenders)]

		attackerSide, err := NewSideState(Army{
			Name:      attackerArmy.Name,
			Owner:     attackerArmy.Owner,
			Units:     attackerShares[k%len(attackers)][k/len(attackers)],
			Commander: attackerArmy.Commander,
		}, s.catalog)
		if err != nil {
			continue
		}
		defenderSide, err := NewSideState(Army{
			Name:      defenderArmy.Name,
			Owner:     defenderArmy.Owner,
			Units:     defenderShares[k%len(defenders)][k/len(defenders)],
			Commander: defenderArmy.Commander,
		}, s.catalog)
		if err != nil {
			continue
		}

		pairing := NewPairing(
			fmt.Sprintf("%s/%s-%d", s.ID, tier, k),
			s.Location, s.Terrain, s.Entrenched,
			attackerSide, defenderSide, s.catalog, s.tuning,
		)
		pairings = append(pairings, stackPairing{
			pairing:  pairing,
			attacker: attackerArmy,
			defender: defenderArmy,
		})
	}
	return pairings
}

// splitTierRosters partitions each army's tier units across the pairings
// it appears in. Army i appears in pairings i, i+len, i+2·len, ... so its
// appearance count is pairCount/len rounded up for the first pairCount%len
// armies; counts divide evenly with the remainder going to the earliest
// shares.
func splitTierRosters(s *Stack, armies []*Army, tier Tier, pairCount int) [][]Roster {
	shares := make([][]Roster, len(armies))
	for i, army := range armies {
		appearances := pairCount / len(armies)
		if i < pairCount%len(armies) {
			appearances++
		}

		roster := s.tierRoster(army, tier)
		armyShares := make([]Roster, appearances)
		for k := range armyShares {
			armyShares[k] = Roster{}
		}
		types := sortedTypes(roster)
		for _, unitType := range types {
			count := roster[unitType]
			base := count / appearances
			extra := count % appearances
			for k := 0; k < appearances; k++ {
				share := base
				if k < extra {
					share++
				}
				if share > 0 {
					armyShares[k][unitType] = share
				}
			}
		}
		// A share left without units still needs a roster entry: it
		// becomes a zero-strength side and resolves as a walkover.
		for k := range armyShares {
			if len(armyShares[k]) == 0 {
				armyShares[k][types[0]] = 0
			}
		}
		shares[i] = armyShares
	}
	return shares
}

func sortedTypes(roster Roster) []UnitType {
	types := make([]UnitType, 0, len(roster))
	for t := range roster {
		types = append(types, t)
	}
	for i := 1; i < len(types); i++ {
		for j := i; j > 0 && types[j] < types[j-1]; j-- {
			types[j], types[j-1] = types[j-1], types[j]
		}
	}
	return types
}
