package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"warfield/combat"
)

func swordArmy(owner string, count int) combat.Army {
	return combat.Army{Name: owner + "-host", Owner: owner, Units: combat.Roster{combat.Swordsman: count}}
}

func drainEvents(ch <-chan Event) []Event {
	events := []Event{}
	for {
		select {
		case event := <-ch:
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestStartCombat(t *testing.T) {
	t.Run("registers a pairing for two armies", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10)},
			[]combat.Army{swordArmy("blue", 10)},
			combat.Hex{Q: 2, R: 1})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		status, ok := r.CombatStatus(id)
		require.True(t, ok)
		require.False(t, status.Stacked)
		require.Equal(t, combat.Hex{Q: 2, R: 1}, status.Location)
		require.Equal(t, "red", status.Attacker.Owner)
		require.Equal(t, 600.0, status.Attacker.InitialHP)
	})

	t.Run("registers a stack for three or more armies", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10), swordArmy("green", 5)},
			[]combat.Army{swordArmy("blue", 12)},
			combat.Hex{})
		require.NoError(t, err)

		status, ok := r.CombatStatus(id)
		require.True(t, ok)
		require.True(t, status.Stacked)
		require.Equal(t, "melee", status.Tier)
		require.Equal(t, 2, status.ActivePairings)
	})

	t.Run("a validation failure leaves nothing registered", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		ch := r.Subscribe()

		cases := []struct {
			name      string
			attackers []combat.Army
			defenders []combat.Army
		}{
			{"no attackers", nil, []combat.Army{swordArmy("blue", 5)}},
			{"empty roster", []combat.Army{{Name: "host", Owner: "red", Units: combat.Roster{}}},
				[]combat.Army{swordArmy("blue", 5)}},
			{"negative count", []combat.Army{{Name: "host", Owner: "red",
				Units: combat.Roster{combat.Swordsman: -1}}}, []combat.Army{swordArmy("blue", 5)}},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := r.StartCombat(c.attackers, c.defenders, combat.Hex{})
				require.Error(t, err)
			})
		}

		require.Empty(t, r.ActiveCombats(), "Failed starts should register nothing")
		require.Empty(t, r.History())
		require.Empty(t, drainEvents(ch), "Failed starts should publish nothing")
	})

	t.Run("a zero-strength side resolves and is recorded immediately", func(t *testing.T) {
		endedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		r := New(combat.DefaultCatalog(), StaticTerrain{},
			WithClock(func() time.Time { return endedAt }))
		ch := r.Subscribe()

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 0)},
			[]combat.Army{swordArmy("blue", 10)},
			combat.Hex{})
		require.NoError(t, err)

		require.Empty(t, r.ActiveCombats(), "A walkover should never sit in the active table")
		history := r.History()
		require.Len(t, history, 1)
		require.Equal(t, combat.OutcomeDefenderWin, history[0].Outcome)
		require.Equal(t, "blue", history[0].Winner)
		require.Equal(t, 0, history[0].Defender.Casualties)
		require.Equal(t, endedAt, history[0].EndedAt)

		events := drainEvents(ch)
		require.Len(t, events, 2)
		require.Equal(t, CombatStarted, events[0].Kind)
		require.Equal(t, CombatEnded, events[1].Kind)
		require.Equal(t, id, events[1].CombatID)
		require.Len(t, events[1].Records, 1)
	})

	t.Run("a stack against a zero-strength side is recorded immediately", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		ch := r.Subscribe()

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10), swordArmy("green", 10)},
			[]combat.Army{swordArmy("blue", 0)},
			combat.Hex{})
		require.NoError(t, err)

		require.Empty(t, r.ActiveCombats())
		history := r.History()
		require.Len(t, history, 1, "A stack with nothing to fight must still reach history")
		require.Equal(t, combat.OutcomeAttackerWin, history[0].Outcome)
		require.Equal(t, "red", history[0].Winner)

		events := drainEvents(ch)
		require.Len(t, events, 2)
		require.Equal(t, CombatEnded, events[1].Kind)
		require.NotEmpty(t, events[1].Records, "The ending event must carry the record")
		require.Equal(t, id, events[1].CombatID)
	})

	t.Run("a location without terrain data falls back to plains", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{
			{Q: 1, R: 0}: {Terrain: combat.TerrainHills, Entrenched: true},
		})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 5)},
			[]combat.Army{swordArmy("blue", 5)},
			combat.Hex{Q: 9, R: 9})
		require.NoError(t, err)
		require.NoError(t, r.CancelCombat(id))

		history := r.History()
		require.Len(t, history, 1)
		require.Equal(t, combat.TerrainPlains, history[0].Terrain)
		require.False(t, history[0].Entrenched)
	})

	t.Run("terrain at the location shapes the combat", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{
			{Q: 1, R: 0}: {Terrain: combat.TerrainHills, Entrenched: true},
		})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 5)},
			[]combat.Army{swordArmy("blue", 5)},
			combat.Hex{Q: 1, R: 0})
		require.NoError(t, err)
		require.NoError(t, r.CancelCombat(id))

		history := r.History()
		require.Len(t, history, 1)
		require.Equal(t, combat.TerrainHills, history[0].Terrain)
		require.True(t, history[0].Entrenched)
		require.Equal(t, combat.ResolveModifiers(combat.TerrainHills, true), history[0].Modifiers)
	})
}

func TestAdvance(t *testing.T) {
	t.Run("unknown combat IDs are an error", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		require.Error(t, r.Advance("missing", 0.25))
		require.Error(t, r.CancelCombat("missing"))
	})

	t.Run("drives a combat to completion and into history", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 100)},
			[]combat.Army{swordArmy("blue", 80)},
			combat.Hex{})
		require.NoError(t, err)

		for {
			if _, ok := r.CombatStatus(id); !ok {
				break
			}
			require.NoError(t, r.Advance(id, 0.25))
		}

		history := r.History()
		require.Len(t, history, 1)
		require.Equal(t, combat.OutcomeAttackerWin, history[0].Outcome)
		require.Equal(t, "red", history[0].Winner)
		require.Greater(t, history[0].Defender.Casualties, 0)
	})

	t.Run("AdvanceAll steps every active combat", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		_, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 60)},
			[]combat.Army{swordArmy("blue", 40)},
			combat.Hex{Q: 0, R: 0})
		require.NoError(t, err)
		_, err = r.StartCombat(
			[]combat.Army{swordArmy("red", 30)},
			[]combat.Army{swordArmy("blue", 45)},
			combat.Hex{Q: 1, R: 1})
		require.NoError(t, err)

		for i := 0; i < 10000 && len(r.ActiveCombats()) > 0; i++ {
			r.AdvanceAll(0.25)
		}

		require.Empty(t, r.ActiveCombats())

		history := r.History()
		require.Len(t, history, 2)
		winners := []string{history[0].Winner, history[1].Winner}
		require.ElementsMatch(t, []string{"red", "blue"}, winners,
			"Each outnumbering side should take its fight")
	})

	t.Run("update events carry live strength snapshots", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 50)},
			[]combat.Army{swordArmy("blue", 50)},
			combat.Hex{})
		require.NoError(t, err)

		ch := r.Subscribe()
		require.NoError(t, r.Advance(id, 0.25))

		events := drainEvents(ch)
		require.Len(t, events, 1)
		require.Equal(t, CombatUpdated, events[0].Kind)
		require.Less(t, events[0].Status.Defender.CurrentHP, events[0].Status.Defender.InitialHP,
			"The snapshot should reflect the damage just applied")
	})
}

func TestCancelCombat(t *testing.T) {
	t.Run("produces a cancelled record with committed casualties", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 50)},
			[]combat.Army{swordArmy("blue", 50)},
			combat.Hex{})
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			require.NoError(t, r.Advance(id, 0.25))
		}
		require.NoError(t, r.CancelCombat(id))

		_, ok := r.CombatStatus(id)
		require.False(t, ok, "A cancelled combat should leave the active table")

		history := r.History()
		require.Len(t, history, 1)
		require.Equal(t, combat.OutcomeCancelled, history[0].Outcome)
		require.Empty(t, history[0].Winner)
		require.Greater(t, history[0].Defender.Casualties, 0,
			"Casualties taken before the cancel should be in the record")
	})
}

func TestActiveAt(t *testing.T) {
	t.Run("reflects the live table, not a cache", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		location := combat.Hex{Q: 3, R: -2}

		require.False(t, r.ActiveAt(location))

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10)},
			[]combat.Army{swordArmy("blue", 10)},
			location)
		require.NoError(t, err)
		require.True(t, r.ActiveAt(location))
		require.False(t, r.ActiveAt(combat.Hex{Q: 0, R: 0}))

		require.NoError(t, r.CancelCombat(id))
		require.False(t, r.ActiveAt(location))
	})
}

func TestStatusSerialization(t *testing.T) {
	t.Run("side blocks are present for pairings and stacks alike", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})

		pairingID, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10)},
			[]combat.Army{swordArmy("blue", 10)},
			combat.Hex{})
		require.NoError(t, err)
		stackID, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 10), swordArmy("green", 5)},
			[]combat.Army{swordArmy("blue", 12)},
			combat.Hex{Q: 1, R: 1})
		require.NoError(t, err)

		for _, id := range []string{pairingID, stackID} {
			status, ok := r.CombatStatus(id)
			require.True(t, ok)
			payload, err := json.Marshal(status)
			require.NoError(t, err)
			require.Contains(t, string(payload), `"attacker"`,
				"Clients rely on the side blocks always being present")
			require.Contains(t, string(payload), `"defender"`)
		}
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("unsubscribe closes the channel and stops delivery", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		ch := r.Subscribe()
		r.Unsubscribe(ch)

		_, open := <-ch
		require.False(t, open, "Unsubscribed channels should be closed")

		_, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 5)},
			[]combat.Army{swordArmy("blue", 5)},
			combat.Hex{})
		require.NoError(t, err)
	})

	t.Run("a full subscriber drops events instead of blocking the tick", func(t *testing.T) {
		r := New(combat.DefaultCatalog(), StaticTerrain{})
		ch := r.Subscribe()

		id, err := r.StartCombat(
			[]combat.Army{swordArmy("red", 200)},
			[]combat.Army{swordArmy("blue", 200)},
			combat.Hex{})
		require.NoError(t, err)

		// Never read; the buffer fills and the registry keeps ticking.
		for i := 0; i < 100; i++ {
			require.NoError(t, r.Advance(id, 0.25))
		}
		require.Len(t, drainEvents(ch), 64, "Delivery should stop at the buffer, not block")
	})
}
