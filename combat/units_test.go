package combat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	t.Run("covers every unit type with positive HP", func(t *testing.T) {
		catalog := DefaultCatalog()
		require.Len(t, catalog.Types(), len(unitTypeNames))
		for _, unitType := range catalog.Types() {
			stats, ok := catalog.Stats(unitType)
			require.True(t, ok)
			require.Greater(t, stats.HP, 0.0, "Type %s needs positive HP", unitType)
			require.Equal(t, unitType.String(), stats.Name)
		}
	})

	t.Run("every type deals damage of at least one kind", func(t *testing.T) {
		catalog := DefaultCatalog()
		for _, unitType := range catalog.Types() {
			stats, _ := catalog.Stats(unitType)
			total := stats.Damage[KindMelee] + stats.Damage[KindPierce] + stats.Damage[KindBludgeon]
			require.Greater(t, total, 0.0, "Type %s cannot fight", unitType)
		}
	})
}

func TestParseUnitType(t *testing.T) {
	t.Run("round-trips every known name", func(t *testing.T) {
		for name, unitType := range unitTypeIDMap {
			parsed, err := ParseUnitType(name)
			require.NoError(t, err)
			require.Equal(t, unitType, parsed)
			require.Equal(t, name, parsed.String())
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		_, err := ParseUnitType("dragon")
		require.Error(t, err)
	})
}

func TestLoadCatalog(t *testing.T) {
	writeCatalog := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "units.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("overrides listed types and keeps the rest", func(t *testing.T) {
		path := writeCatalog(t, `
swordsman:
  category: infantry
  hp: 75
  damage: {melee: 10}
  armor: {melee: 5, pierce: 4}
  bonuses: {siege: 2}
`)
		catalog, err := LoadCatalog(path)
		require.NoError(t, err)

		stats, ok := catalog.Stats(Swordsman)
		require.True(t, ok)
		require.Equal(t, 75.0, stats.HP)
		require.Equal(t, 10.0, stats.Damage[KindMelee])
		require.Equal(t, 0.0, stats.Damage[KindBludgeon], "Unlisted kinds default to zero")
		require.Equal(t, []CategoryBonus{{Target: CategorySiege, Amount: 2}}, stats.Bonuses)

		archer, ok := catalog.Stats(Archer)
		require.True(t, ok)
		defaultArcher, _ := DefaultCatalog().Stats(Archer)
		require.Equal(t, defaultArcher, archer, "Unlisted types keep their defaults")
	})

	t.Run("rejects unknown unit names, categories and damage kinds", func(t *testing.T) {
		for name, content := range map[string]string{
			"unknown unit":     "dragon:\n  category: infantry\n  hp: 1\n",
			"unknown category": "swordsman:\n  category: flying\n  hp: 1\n",
			"unknown kind":     "swordsman:\n  category: infantry\n  hp: 1\n  damage: {magic: 3}\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := LoadCatalog(writeCatalog(t, content))
				require.Error(t, err)
			})
		}
	})

	t.Run("a missing file is an error", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}
