package combat

import (
	"time"
)

// SideSummary is one side's aggregate entry in a summary record.
type SideSummary struct {
	Name          string  `json:"name"`
	Owner         string  `json:"owner"`
	CommanderName string  `json:"commander,omitempty"`
	InitialHP     float64 `json:"initialHP"`
	FinalHP       float64 `json:"finalHP"`
	Casualties    int     `json:"casualties"`
}

// Record is the immutable summary history entry written once at combat
// termination.
type Record struct {
	CombatID   string      `json:"combatID"`
	Location   Hex         `json:"location"`
	Terrain    Terrain     `json:"terrain"`
	Entrenched bool        `json:"entrenched"`
	Attacker   SideSummary `json:"attacker"`
	Defender   SideSummary `json:"defender"`
	Outcome    Outcome     `json:"outcome"`
	Winner     string      `json:"winner,omitempty"`
	Duration   float64     `json:"duration"`
	EndedAt    time.Time   `json:"endedAt"`
}

// UnitTally is one unit type's initial/final composition in a detailed
// record. Wiped types keep an entry with a zero final count.
type UnitTally struct {
	Type       UnitType `json:"type"`
	Initial    int      `json:"initial"`
	Final      int      `json:"final"`
	Casualties int      `json:"casualties"`
}

// DetailedRecord extends Record with per-type compositions, the ordered
// sub-phase breakdown, and the modifier metadata used for display.
type DetailedRecord struct {
	Record
	AttackerUnits []UnitTally   `json:"attackerUnits"`
	DefenderUnits []UnitTally   `json:"defenderUnits"`
	Phases        []PhaseRecord `json:"phases"`
	Modifiers     Modifiers     `json:"modifiers"`
}

// BuildRecord converts a terminal pairing into a summary record. It is pure
// and never mutates the pairing.
func BuildRecord(p *Pairing, endedAt time.Time) Record {
	return Record{
		CombatID:   p.ID,
		Location:   p.Location,
		Terrain:    p.Terrain,
		Entrenched: p.Entrenched,
		Attacker:   summarizeSide(p.Attacker),
		Defender:   summarizeSide(p.Defender),
		Outcome:    p.Outcome(),
		Winner:     p.Winner(),
		Duration:   p.Elapsed(),
		EndedAt:    endedAt,
	}
}

// BuildDetailedRecord converts a terminal pairing into a detailed record.
func BuildDetailedRecord(p *Pairing, endedAt time.Time) DetailedRecord {
	phases := p.PhaseRecords()
	record := DetailedRecord{
		Record:        BuildRecord(p, endedAt),
		AttackerUnits: tallySide(p.Attacker),
		DefenderUnits: tallySide(p.Defender),
		Phases:        make([]PhaseRecord, len(phases)),
		Modifiers:     p.Modifiers(),
	}
	// Deep-copy phase records so the history entry stays immutable.
	for i, phase := range phases {
		copied := phase
		copied.AttackerLosses = copyLosses(phase.AttackerLosses)
		copied.DefenderLosses = copyLosses(phase.DefenderLosses)
		record.Phases[i] = copied
	}
	return record
}

func summarizeSide(s *SideState) SideSummary {
	summary := SideSummary{
		Name:       s.Name,
		Owner:      s.Owner,
		InitialHP:  s.InitialTotalHP(),
		FinalHP:    s.CurrentTotalHP(),
		Casualties: s.Casualties(),
	}
	if s.Commander != nil {
		summary.CommanderName = s.Commander.Name
	}
	return summary
}

// tallySide lists every unit type the side started with, including types
// wiped to zero, so casualty displays never divide by a missing key.
func tallySide(s *SideState) []UnitTally {
	live := s.LiveCounts()
	tallies := make([]UnitTally, 0, len(live))
	for _, unitType := range s.types() {
		initial := s.initial[unitType]
		final := live[unitType]
		tallies = append(tallies, UnitTally{
			Type:       unitType,
			Initial:    initial,
			Final:      final,
			Casualties: initial - final,
		})
	}
	return tallies
}

func copyLosses(losses map[UnitType]int) map[UnitType]int {
	copied := make(map[UnitType]int, len(losses))
	for unitType, count := range losses {
		copied[unitType] = count
	}
	return copied
}
