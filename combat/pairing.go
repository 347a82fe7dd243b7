package combat

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"warfield/meta"
)

// Phase is the lifecycle of one pairing.
type Phase int

const (
	PhaseEngaging Phase = iota
	PhaseActive
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseEngaging:
		return "engaging"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// SubPhase tags damage events for the detailed record. The damage model
// itself does not branch on it.
type SubPhase int

const (
	SubPhaseSkirmish SubPhase = iota
	SubPhaseMelee
)

func (s SubPhase) String() string {
	switch s {
	case SubPhaseSkirmish:
		return "skirmish"
	case SubPhaseMelee:
		return "melee"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a pairing.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAttackerWin
	OutcomeDefenderWin
	OutcomeDraw
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeAttackerWin:
		return "attacker_win"
	case OutcomeDefenderWin:
		return "defender_win"
	case OutcomeDraw:
		return "draw"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText makes outcomes render as names in JSON payloads.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MarshalText makes sub-phases render as names in JSON payloads.
func (s SubPhase) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PhaseRecord accumulates one sub-phase's damage and casualties for the
// detailed record.
type PhaseRecord struct {
	Sub            SubPhase
	Duration       float64
	AttackerDamage float64
	DefenderDamage float64
	AttackerLosses map[UnitType]int
	DefenderLosses map[UnitType]int
}

func newPhaseRecord(sub SubPhase) PhaseRecord {
	return PhaseRecord{
		Sub:            sub,
		AttackerLosses: make(map[UnitType]int),
		DefenderLosses: make(map[UnitType]int),
	}
}

// Tuning holds the simulation parameters a host may override.
type Tuning struct {
	ChipDamage    float64
	SkirmishTicks int
	MaxTicks      int
}

// DefaultTuning returns the built-in simulation parameters.
func DefaultTuning() Tuning {
	return Tuning{
		ChipDamage:    meta.CHIP_DAMAGE,
		SkirmishTicks: meta.SKIRMISH_TICKS,
		MaxTicks:      meta.MAX_TICKS,
	}
}

// Pairing advances one attacker side against one defender side through the
// combat phases. It owns no clock: the host calls Advance with its own
// cadence, and replaying the same Advance sequence from the same snapshot
// reproduces the same outcome.
type Pairing struct {
	ID         string
	Location   Hex
	Terrain    Terrain
	Entrenched bool

	Attacker *SideState
	Defender *SideState

	catalog *Catalog
	mods    Modifiers
	tuning  Tuning

	phase   Phase
	outcome Outcome
	elapsed float64
	ticks   int

	closed  []PhaseRecord
	current PhaseRecord
	anomaly error
}

// NewPairing computes the fixed modifiers for the pairing and checks for a
// walkover: a side with zero total units at start loses immediately, with
// zero casualties on the winning side.
func NewPairing(id string, location Hex, terrain Terrain, entrenched bool,
	attacker, defender *SideState, catalog *Catalog, tuning Tuning) *Pairing {

	p := &Pairing{
		ID:         id,
		Location:   location,
		Terrain:    terrain,
		Entrenched: entrenched,
		Attacker:   attacker,
		Defender:   defender,
		catalog:    catalog,
		mods:       ResolveModifiers(terrain, entrenched),
		tuning:     tuning,
		phase:      PhaseEngaging,
		current:    newPhaseRecord(SubPhaseSkirmish),
	}

	attackerEmpty := attacker.InitialTotalHP() <= 0
	defenderEmpty := defender.InitialTotalHP() <= 0
	switch {
	case attackerEmpty && defenderEmpty:
		p.terminate(OutcomeDraw)
	case defenderEmpty:
		p.terminate(OutcomeAttackerWin)
	case attackerEmpty:
		p.terminate(OutcomeDefenderWin)
	}
	return p
}

// Phase returns the pairing's lifecycle phase.
func (p *Pairing) Phase() Phase { return p.phase }

// Outcome returns the terminal result, OutcomeNone while unresolved.
func (p *Pairing) Outcome() Outcome { return p.outcome }

// Elapsed returns the simulated seconds so far.
func (p *Pairing) Elapsed() float64 { return p.elapsed }

// Ticks returns how many Advance calls have been applied.
func (p *Pairing) Ticks() int { return p.ticks }

// Modifiers returns the fixed modifiers computed at pairing start.
func (p *Pairing) Modifiers() Modifiers { return p.mods }

// Done reports whether the pairing reached its terminal phase.
func (p *Pairing) Done() bool { return p.phase == PhaseEnded }

// Anomaly returns the inconsistency that forced early termination, if any.
func (p *Pairing) Anomaly() error { return p.anomaly }

// Winner returns the owner of the winning side, empty on draw or while the
// pairing is unresolved.
func (p *Pairing) Winner() string {
	switch p.outcome {
	case OutcomeAttackerWin:
		return p.Attacker.Owner
	case OutcomeDefenderWin:
		return p.Defender.Owner
	default:
		return ""
	}
}

// Advance applies one simulation step of dt seconds. Both sides' output is
// computed from the pre-tick state, so exchanges are simultaneous. A
// catalog inconsistency forces a draw for this pairing only; it never
// panics out of the host tick loop.
func (p *Pairing) Advance(dt float64) {
	if p.phase == PhaseEnded || dt <= 0 {
		return
	}
	if p.phase == PhaseEngaging {
		p.phase = PhaseActive
	}

	attackerOut, err := p.outgoing(p.Attacker, p.Defender, true, dt)
	if err == nil {
		var defenderOut float64
		defenderOut, err = p.outgoing(p.Defender, p.Attacker, false, dt)
		if err == nil {
			defenderLosses := p.Defender.ApplyDamage(attackerOut)
			attackerLosses := p.Attacker.ApplyDamage(defenderOut)

			p.current.AttackerDamage += attackerOut
			p.current.DefenderDamage += defenderOut
			mergeLosses(p.current.DefenderLosses, defenderLosses)
			mergeLosses(p.current.AttackerLosses, attackerLosses)
		}
	}
	if err != nil {
		p.anomaly = err
		log.Warn().Str("combat", p.ID).Err(err).Msg("simulation inconsistency, forcing draw")
		p.current.Duration += dt
		p.elapsed += dt
		p.ticks++
		p.terminate(OutcomeDraw)
		return
	}

	p.current.Duration += dt
	p.elapsed += dt
	p.ticks++

	attackerAlive := p.Attacker.CurrentTotalHP() > 0
	defenderAlive := p.Defender.CurrentTotalHP() > 0
	switch {
	case !attackerAlive && !defenderAlive:
		p.terminate(OutcomeDraw)
	case !defenderAlive:
		p.terminate(OutcomeAttackerWin)
	case !attackerAlive:
		p.terminate(OutcomeDefenderWin)
	case p.ticks >= p.tuning.MaxTicks:
		// Time budget expired with both sides standing.
		p.terminate(OutcomeDraw)
	case p.ticks == p.tuning.SkirmishTicks:
		p.closed = append(p.closed, p.current)
		p.current = newPhaseRecord(SubPhaseMelee)
	}
}

// Cancel terminates the pairing early, e.g. on retreat. Committed
// casualties stand and a valid partial record can still be built.
func (p *Pairing) Cancel() {
	if p.phase == PhaseEnded {
		return
	}
	p.terminate(OutcomeCancelled)
}

// outgoing computes one side's effective attack output against the other
// for a dt-second step.
func (p *Pairing) outgoing(from, to *SideState, fromIsAttacker bool, dt float64) (float64, error) {
	if to.CurrentTotalHP() <= 0 {
		return 0, nil
	}

	total := 0.0
	for _, unitType := range from.types() {
		count := from.live[unitType]
		if count == 0 {
			continue
		}
		stats, ok := p.catalog.Stats(unitType)
		if !ok {
			return 0, fmt.Errorf("unit type %q missing from catalog", unitType)
		}

		// Armor is subtracted per kind, floored at chip damage so armor can
		// never make a unit fully immune.
		perUnit := 0.0
		for _, kind := range damageKinds {
			if stats.Damage[kind] <= 0 {
				continue
			}
			dealt := stats.Damage[kind] - to.effectiveArmor(kind)
			if dealt < p.tuning.ChipDamage {
				dealt = p.tuning.ChipDamage
			}
			perUnit += dealt
		}
		perUnit *= 1 + from.Commander.AttackBonus(stats.Category)

		typeOut := perUnit * float64(count)
		for _, bonus := range stats.Bonuses {
			share := to.categoryHPShare(bonus.Target)
			if share > 0 {
				typeOut += bonus.Amount * float64(count) * share
			}
		}

		if fromIsAttacker {
			typeOut *= 1 - p.mods.AttackerPenalty
		}
		typeOut *= dt

		// Defender bonuses reduce incoming damage on the receiving side.
		reduction := 1 + to.Commander.DefenseBonus()
		if fromIsAttacker {
			// The receiving side is the defender, which holds the
			// terrain and entrenchment bonus.
			reduction += p.mods.DefenderDefense
		}
		typeOut /= reduction

		from.recordDealt(unitType, typeOut)
		total += typeOut
	}
	return total, nil
}

func (p *Pairing) terminate(outcome Outcome) {
	p.outcome = outcome
	p.phase = PhaseEnded
	if p.current.Duration > 0 || len(p.closed) == 0 {
		p.closed = append(p.closed, p.current)
	}
}

// PhaseRecords returns the per-sub-phase accumulators, the open one last.
func (p *Pairing) PhaseRecords() []PhaseRecord {
	if p.phase == PhaseEnded {
		return p.closed
	}
	records := make([]PhaseRecord, len(p.closed), len(p.closed)+1)
	copy(records, p.closed)
	return append(records, p.current)
}

func mergeLosses(into map[UnitType]int, losses map[UnitType]int) {
	for unitType, count := range losses {
		into[unitType] += count
	}
}
