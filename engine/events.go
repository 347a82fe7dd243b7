package engine

import (
	"warfield/combat"
)

// EventKind tags lifecycle notifications published by the registry.
type EventKind int

const (
	CombatStarted EventKind = iota
	CombatUpdated
	CombatEnded
)

func (k EventKind) String() string {
	switch k {
	case CombatStarted:
		return "combat_started"
	case CombatUpdated:
		return "combat_updated"
	case CombatEnded:
		return "combat_ended"
	default:
		return "unknown"
	}
}

// SideStatus is one side's live strength in a status snapshot.
type SideStatus struct {
	Name      string  `json:"name"`
	Owner     string  `json:"owner"`
	InitialHP float64 `json:"initialHP"`
	CurrentHP float64 `json:"currentHP"`
}

// Status is a point-in-time view of an active combat, safe to hand to
// observers.
type Status struct {
	ID                string     `json:"id"`
	Location          combat.Hex `json:"location"`
	Stacked           bool       `json:"stacked"`
	Phase             string     `json:"phase"`
	Tier              string     `json:"tier,omitempty"`
	Attacker          SideStatus `json:"attacker"`
	Defender          SideStatus `json:"defender"`
	ActivePairings    int        `json:"activePairings,omitempty"`
	CompletedPairings int        `json:"completedPairings,omitempty"`
	Elapsed           float64    `json:"elapsed"`
}

// Event is a lifecycle notification. Records is populated on CombatEnded.
type Event struct {
	Kind     EventKind       `json:"kind"`
	CombatID string          `json:"combatID"`
	Status   Status          `json:"status"`
	Records  []combat.Record `json:"records,omitempty"`
}
