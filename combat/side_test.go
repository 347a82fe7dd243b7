package combat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSideState(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("snapshots the roster and computes the HP pool", func(t *testing.T) {
		side, err := NewSideState(Army{
			Name:  "host",
			Owner: "red",
			Units: Roster{Swordsman: 10, Archer: 5},
		}, catalog)

		require.NoError(t, err)
		require.Equal(t, 10*60.0+5*35.0, side.InitialTotalHP(),
			"Initial HP should be the sum of count times unit HP")
		require.Equal(t, side.InitialTotalHP(), side.CurrentTotalHP(),
			"Current HP should start at the initial pool")
		require.Equal(t, map[UnitType]int{Swordsman: 10, Archer: 5}, side.InitialCounts())
	})

	t.Run("rejects an empty roster", func(t *testing.T) {
		_, err := NewSideState(Army{Name: "host", Units: Roster{}}, catalog)
		require.Error(t, err, "Empty rosters should be rejected")
	})

	t.Run("rejects an unknown unit type", func(t *testing.T) {
		_, err := NewSideState(Army{Name: "host", Units: Roster{UnitType(99): 3}}, catalog)
		require.Error(t, err, "Unknown unit types should be rejected")
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		_, err := NewSideState(Army{Name: "host", Units: Roster{Swordsman: -1}}, catalog)
		require.Error(t, err, "Negative counts should be rejected")
	})

	t.Run("accepts a roster whose counts sum to zero", func(t *testing.T) {
		side, err := NewSideState(Army{Name: "host", Units: Roster{Swordsman: 0}}, catalog)
		require.NoError(t, err, "Zero-count rosters resolve as walkovers, not errors")
		require.Equal(t, 0.0, side.InitialTotalHP())
		require.False(t, side.Alive())
	})
}

func TestApplyDamage(t *testing.T) {
	catalog := DefaultCatalog()

	newSide := func(t *testing.T, units Roster) *SideState {
		t.Helper()
		side, err := NewSideState(Army{Name: "host", Owner: "red", Units: units}, catalog)
		require.NoError(t, err)
		return side
	}

	t.Run("carries fractional damage across applications", func(t *testing.T) {
		side := newSide(t, Roster{Swordsman: 10}) // 600 HP, 60 per unit

		losses := side.ApplyDamage(45)
		require.Empty(t, losses, "45 damage should not kill a 60 HP unit")
		require.Equal(t, 10, side.LiveCounts()[Swordsman])
		require.InDelta(t, 555.0, side.CurrentTotalHP(), 1e-9,
			"Partial damage should still reduce the HP pool")

		losses = side.ApplyDamage(45)
		require.Equal(t, 1, losses[Swordsman],
			"Carried damage should cross the whole-unit threshold")
		require.Equal(t, 9, side.LiveCounts()[Swordsman])
		require.InDelta(t, 510.0, side.CurrentTotalHP(), 1e-9)
	})

	t.Run("splits damage proportionally to remaining HP", func(t *testing.T) {
		side := newSide(t, Roster{Swordsman: 10, Archer: 10}) // 600 + 350 HP

		side.ApplyDamage(95) // 60 to swordsmen, 35 to archers by share

		require.InDelta(t, 950.0-95.0, side.CurrentTotalHP(), 1e-9)
		require.Equal(t, 9, side.LiveCounts()[Swordsman],
			"Swordsmen should absorb their HP share of the damage")
		require.Equal(t, 9, side.LiveCounts()[Archer],
			"Archers should absorb their HP share of the damage")
	})

	t.Run("overkill wipes the side without going negative", func(t *testing.T) {
		side := newSide(t, Roster{Swordsman: 3})

		losses := side.ApplyDamage(10000)

		require.Equal(t, 3, losses[Swordsman])
		require.Equal(t, 0, side.LiveCounts()[Swordsman])
		require.Equal(t, 0.0, side.CurrentTotalHP(), "HP should clamp at zero")
		require.False(t, side.Alive())
	})

	t.Run("counts never exceed their initial values", func(t *testing.T) {
		side := newSide(t, Roster{Swordsman: 5, Spearman: 5})

		for i := 0; i < 50; i++ {
			before := side.CurrentTotalHP()
			side.ApplyDamage(13)
			require.LessOrEqual(t, side.CurrentTotalHP(), before,
				"HP pool should be monotonically non-increasing")
			for unitType, count := range side.LiveCounts() {
				require.LessOrEqual(t, count, side.InitialCounts()[unitType],
					"Live counts should be bounded by initial counts")
				require.GreaterOrEqual(t, count, 0)
			}
		}
	})

	t.Run("casualties match the initial minus live delta", func(t *testing.T) {
		side := newSide(t, Roster{Swordsman: 10, Archer: 4})

		total := 0
		for i := 0; i < 20; i++ {
			for _, lost := range side.ApplyDamage(50) {
				total += lost
			}
		}

		require.Equal(t, side.Casualties(), total,
			"Reported losses should add up to the composition delta")
	})
}
