package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"warfield/meta"
)

func TestCommanderAttackBonus(t *testing.T) {
	t.Run("aggressive specialty boosts its own category only", func(t *testing.T) {
		commander := &Commander{Name: "Osric", Specialty: SpecialtyCavalryCharge, Level: 3}

		require.InDelta(t, meta.SPECIALTY_ATTACK_BONUS+3*meta.LEVEL_BONUS_STEP,
			commander.AttackBonus(CategoryCavalry), 1e-9,
			"Matching category should get specialty plus level bonus")
		require.Equal(t, 0.0, commander.AttackBonus(CategoryInfantry),
			"Non-matching categories should get nothing from an aggressive commander")
	})

	t.Run("unspecialized commander grants the level bonus everywhere", func(t *testing.T) {
		commander := &Commander{Name: "Aldwin", Level: 5}

		for _, category := range []UnitCategory{CategoryInfantry, CategoryRanged, CategoryCavalry, CategorySiege} {
			require.InDelta(t, 5*meta.LEVEL_BONUS_STEP, commander.AttackBonus(category), 1e-9,
				"Level bonus should apply as a baseline to every category")
		}
		require.InDelta(t, 5*meta.LEVEL_BONUS_STEP, commander.DefenseBonus(), 1e-9,
			"Level bonus should also apply to defense")
	})

	t.Run("no commander means zero bonus, not an error", func(t *testing.T) {
		var commander *Commander

		require.Equal(t, 0.0, commander.AttackBonus(CategoryInfantry))
		require.Equal(t, 0.0, commander.DefenseBonus())
	})
}

func TestCommanderDefenseBonus(t *testing.T) {
	t.Run("defensive specialty applies to all categories", func(t *testing.T) {
		commander := &Commander{Name: "Berthild", Specialty: SpecialtyDefender, Level: 2}

		require.InDelta(t, meta.SPECIALTY_DEFENSE_BONUS+2*meta.LEVEL_BONUS_STEP,
			commander.DefenseBonus(), 1e-9)
		require.Equal(t, 0.0, commander.AttackBonus(CategoryInfantry),
			"A defensive commander should not boost attack")
	})

	t.Run("aggressive specialty grants no armor", func(t *testing.T) {
		commander := &Commander{Name: "Osric", Specialty: SpecialtyMarksmanship, Level: 4}

		require.Equal(t, 0.0, commander.DefenseBonus())
	})
}

func TestParseSpecialty(t *testing.T) {
	t.Run("round-trips every known specialty", func(t *testing.T) {
		for name, specialty := range specialtyIDMap {
			parsed, err := ParseSpecialty(name)
			require.NoError(t, err)
			require.Equal(t, specialty, parsed)
			require.Equal(t, name, parsed.String())
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := ParseSpecialty("berserker")
		require.Error(t, err)
	})
}
