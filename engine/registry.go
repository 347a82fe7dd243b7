package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"warfield/combat"
)

// TerrainSource answers terrain lookups for combat locations. The third
// return value reports whether the coordinate has terrain data at all; a
// miss is not an error, the registry falls back to plains with no
// entrenchment so a started combat is always resolvable.
type TerrainSource interface {
	TerrainAt(location combat.Hex) (combat.Terrain, bool, bool)
}

// StaticTerrain is a map-backed TerrainSource for hosts and tests.
type StaticTerrain map[combat.Hex]TerrainInfo

// TerrainInfo is one hex's terrain data.
type TerrainInfo struct {
	Terrain    combat.Terrain
	Entrenched bool
}

func (m StaticTerrain) TerrainAt(location combat.Hex) (combat.Terrain, bool, bool) {
	info, ok := m[location]
	if !ok {
		return combat.TerrainPlains, false, false
	}
	return info.Terrain, info.Entrenched, true
}

type entry struct {
	id      string
	pairing *combat.Pairing // set for a plain two-army combat
	stack   *combat.Stack   // set for stacked combat
}

func (e *entry) done() bool {
	if e.stack != nil {
		return e.stack.Done()
	}
	return e.pairing.Done()
}

func (e *entry) advance(dt float64) {
	if e.stack != nil {
		e.stack.Advance(dt)
		return
	}
	e.pairing.Advance(dt)
}

func (e *entry) cancel() {
	if e.stack != nil {
		e.stack.Cancel()
		return
	}
	e.pairing.Cancel()
}

// Registry is the process-wide table of active combats. It is an
// explicitly owned object, not a hidden singleton: hosts and tests build
// isolated instances. It holds no locks because the host drives it from a
// single update loop; concurrent callers must wrap it themselves.
type Registry struct {
	catalog *combat.Catalog
	terrain TerrainSource
	tuning  combat.Tuning
	now     func() time.Time

	active  map[string]*entry
	order   []string // insertion order, keeps AdvanceAll deterministic
	history []combat.DetailedRecord
	subs    []chan Event
}

// Option configures a Registry.
type Option func(*Registry)

// WithTuning overrides the default simulation parameters.
func WithTuning(tuning combat.Tuning) Option {
	return func(r *Registry) { r.tuning = tuning }
}

// WithClock overrides the record timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry over a unit catalog and a terrain source.
func New(catalog *combat.Catalog, terrain TerrainSource, options ...Option) *Registry {
	r := &Registry{
		catalog: catalog,
		terrain: terrain,
		tuning:  combat.DefaultTuning(),
		now:     time.Now,
		active:  make(map[string]*entry),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// StartCombat validates the rosters, resolves terrain at the location and
// registers a new combat. Two armies produce a single pairing; three or
// more produce a stack. Validation failures leave no partial combat
// registered. A side whose counts sum to zero is a walkover: the combat is
// registered, resolved and recorded immediately.
func (r *Registry) StartCombat(attackers, defenders []combat.Army, location combat.Hex) (string, error) {
	if len(attackers) == 0 || len(defenders) == 0 {
		return "", fmt.Errorf("cannot start combat: both sides need at least one army")
	}

	terrain, entrenched, ok := r.terrain.TerrainAt(location)
	if !ok {
		terrain, entrenched = combat.TerrainPlains, false
	}

	id := uuid.NewString()
	e := &entry{id: id}

	if len(attackers) == 1 && len(defenders) == 1 {
		attackerSide, err := combat.NewSideState(attackers[0], r.catalog)
		if err != nil {
			return "", fmt.Errorf("cannot start combat: %w", err)
		}
		defenderSide, err := combat.NewSideState(defenders[0], r.catalog)
		if err != nil {
			return "", fmt.Errorf("cannot start combat: %w", err)
		}
		e.pairing = combat.NewPairing(id, location, terrain, entrenched,
			attackerSide, defenderSide, r.catalog, r.tuning)
	} else {
		// The stack mutates rosters as tiers complete; keep the caller's
		// snapshots intact and work on copies.
		attackerCopies, err := copyArmies(attackers, r.catalog)
		if err != nil {
			return "", fmt.Errorf("cannot start combat: %w", err)
		}
		defenderCopies, err := copyArmies(defenders, r.catalog)
		if err != nil {
			return "", fmt.Errorf("cannot start combat: %w", err)
		}
		stack, err := combat.NewStack(id, location, terrain, entrenched,
			attackerCopies, defenderCopies, r.catalog, r.tuning)
		if err != nil {
			return "", fmt.Errorf("cannot start combat: %w", err)
		}
		e.stack = stack
	}

	r.active[id] = e
	r.order = append(r.order, id)
	log.Info().Str("combat", id).Str("location", location.String()).
		Str("terrain", terrain.String()).Bool("entrenched", entrenched).
		Msg("combat started")
	r.publish(Event{Kind: CombatStarted, CombatID: id, Status: r.status(e)})

	if e.done() {
		r.finalize(e)
	}
	return id, nil
}

// Advance steps one combat by dt seconds of simulated time. It is a
// bounded, non-blocking computation; the host owns the tick cadence.
func (r *Registry) Advance(id string, dt float64) error {
	e, ok := r.active[id]
	if !ok {
		return fmt.Errorf("no active combat %q", id)
	}
	e.advance(dt)
	if e.done() {
		r.finalize(e)
	} else {
		r.publish(Event{Kind: CombatUpdated, CombatID: id, Status: r.status(e)})
	}
	return nil
}

// AdvanceAll steps every active combat in start order. Combats are
// logically concurrent but advanced sequentially; an anomaly in one
// terminates that combat only.
func (r *Registry) AdvanceAll(dt float64) {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	for _, id := range ids {
		if _, ok := r.active[id]; ok {
			_ = r.Advance(id, dt)
		}
	}
}

// CancelCombat terminates a combat early, e.g. when a side retreats. The
// registry entry is removed and a partial record is built from whatever
// casualties had been committed.
func (r *Registry) CancelCombat(id string) error {
	e, ok := r.active[id]
	if !ok {
		return fmt.Errorf("no active combat %q", id)
	}
	e.cancel()
	r.finalize(e)
	return nil
}

// ActiveCombats returns a status snapshot per active combat, in start order.
func (r *Registry) ActiveCombats() []Status {
	statuses := make([]Status, 0, len(r.active))
	for _, id := range r.order {
		if e, ok := r.active[id]; ok {
			statuses = append(statuses, r.status(e))
		}
	}
	return statuses
}

// CombatStatus returns the status of one active combat.
func (r *Registry) CombatStatus(id string) (Status, bool) {
	e, ok := r.active[id]
	if !ok {
		return Status{}, false
	}
	return r.status(e), true
}

// History returns a copy of the detailed records of finished combats.
func (r *Registry) History() []combat.DetailedRecord {
	history := make([]combat.DetailedRecord, len(r.history))
	copy(history, r.history)
	return history
}

// ActiveAt reports whether any active combat is located at the given hex.
// Callers treat this as the single source of truth instead of caching it.
func (r *Registry) ActiveAt(location combat.Hex) bool {
	for _, e := range r.active {
		loc := e.location()
		if loc == location {
			return true
		}
	}
	return false
}

func (e *entry) location() combat.Hex {
	if e.stack != nil {
		return e.stack.Location
	}
	return e.pairing.Location
}

// Subscribe registers an event channel. Events are dropped, not blocked
// on, when a subscriber falls behind.
func (r *Registry) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	r.subs = append(r.subs, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (r *Registry) Unsubscribe(ch <-chan Event) {
	for i, sub := range r.subs {
		if sub == ch {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (r *Registry) publish(event Event) {
	for _, sub := range r.subs {
		select {
		case sub <- event:
		default:
			log.Warn().Str("combat", event.CombatID).
				Msgf("subscriber full, dropping %s event", event.Kind)
		}
	}
}

func (r *Registry) status(e *entry) Status {
	if e.stack != nil {
		return Status{
			ID:                e.id,
			Location:          e.stack.Location,
			Stacked:           true,
			Phase:             stackPhase(e.stack),
			Tier:              e.stack.CurrentTier().String(),
			ActivePairings:    len(e.stack.ActivePairings()),
			CompletedPairings: len(e.stack.CompletedPairings()),
		}
	}
	p := e.pairing
	return Status{
		ID:       e.id,
		Location: p.Location,
		Phase:    p.Phase().String(),
		Attacker: sideStatus(p.Attacker),
		Defender: sideStatus(p.Defender),
		Elapsed:  p.Elapsed(),
	}
}

func stackPhase(s *combat.Stack) string {
	if s.Done() {
		return combat.PhaseEnded.String()
	}
	return combat.PhaseActive.String()
}

func sideStatus(s *combat.SideState) SideStatus {
	return SideStatus{
		Name:      s.Name,
		Owner:     s.Owner,
		InitialHP: s.InitialTotalHP(),
		CurrentHP: s.CurrentTotalHP(),
	}
}

// finalize converts a terminal combat into history records, removes it
// from the active table and notifies subscribers.
func (r *Registry) finalize(e *entry) {
	endedAt := r.now()

	var pairings []*combat.Pairing
	if e.stack != nil {
		pairings = e.stack.CompletedPairings()
	} else {
		pairings = []*combat.Pairing{e.pairing}
	}

	records := make([]combat.Record, 0, len(pairings))
	for _, p := range pairings {
		detailed := combat.BuildDetailedRecord(p, endedAt)
		r.history = append(r.history, detailed)
		records = append(records, detailed.Record)
		if p.Anomaly() != nil {
			log.Warn().Str("combat", p.ID).Err(p.Anomaly()).
				Msg("combat ended on anomaly")
		}
	}

	delete(r.active, e.id)
	for i, id := range r.order {
		if id == e.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	log.Info().Str("combat", e.id).Int("records", len(records)).Msg("combat ended")
	r.publish(Event{Kind: CombatEnded, CombatID: e.id, Status: r.status(e), Records: records})
}

func copyArmies(armies []combat.Army, catalog *combat.Catalog) ([]*combat.Army, error) {
	copies := make([]*combat.Army, len(armies))
	for i, army := range armies {
		if len(army.Units) == 0 {
			return nil, fmt.Errorf("army %q has an empty roster", army.Name)
		}
		units := make(combat.Roster, len(army.Units))
		for unitType, count := range army.Units {
			if _, ok := catalog.Stats(unitType); !ok {
				return nil, fmt.Errorf("army %q has unknown unit type %q", army.Name, unitType)
			}
			if count < 0 {
				return nil, fmt.Errorf("army %q has negative count %d for %q", army.Name, count, unitType)
			}
			units[unitType] = count
		}
		copies[i] = &combat.Army{
			Name:      army.Name,
			Owner:     army.Owner,
			Units:     units,
			Commander: army.Commander,
		}
	}
	return copies, nil
}
