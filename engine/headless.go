package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"warfield/combat"
	"warfield/meta"
)

// Setup is the initial state for a headless run: one attacker against one
// defender with explicit terrain, independent of any live registry.
type Setup struct {
	Attacker   combat.Army
	Defender   combat.Army
	Location   combat.Hex
	Terrain    combat.Terrain
	Entrenched bool

	// TickSeconds is the fixed step; DEFAULT_TICK_SECONDS when zero.
	TickSeconds float64
	// Tuning overrides the default simulation parameters when non-nil.
	Tuning *combat.Tuning
}

// RunToCompletion simulates a pairing to its terminal state with no
// real-time stepping, for what-if analysis. Identical setups produce
// identical records apart from the generated ID and timestamp.
func RunToCompletion(catalog *combat.Catalog, setup Setup) (combat.DetailedRecord, error) {
	attackerSide, err := combat.NewSideState(setup.Attacker, catalog)
	if err != nil {
		return combat.DetailedRecord{}, fmt.Errorf("cannot run simulation: %w", err)
	}
	defenderSide, err := combat.NewSideState(setup.Defender, catalog)
	if err != nil {
		return combat.DetailedRecord{}, fmt.Errorf("cannot run simulation: %w", err)
	}

	tuning := combat.DefaultTuning()
	if setup.Tuning != nil {
		tuning = *setup.Tuning
	}
	tick := setup.TickSeconds
	if tick <= 0 {
		tick = meta.DEFAULT_TICK_SECONDS
	}

	pairing := combat.NewPairing(uuid.NewString(), setup.Location,
		setup.Terrain, setup.Entrenched, attackerSide, defenderSide, catalog, tuning)
	for !pairing.Done() {
		pairing.Advance(tick)
	}
	return combat.BuildDetailedRecord(pairing, time.Now()), nil
}
