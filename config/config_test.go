package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"warfield/meta"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warfield.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("a missing file yields the defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
		require.Equal(t, meta.DEFAULT_TICK_SECONDS, cfg.Simulation.TickSeconds)
		require.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("an empty path yields the defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("file values override defaults section by section", func(t *testing.T) {
		path := writeConfig(t, `
[simulation]
tick_seconds = 0.5
max_ticks = 100

[logging]
level = "debug"
pretty = true
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, 0.5, cfg.Simulation.TickSeconds)
		require.Equal(t, 100, cfg.Simulation.MaxTicks)
		require.Equal(t, meta.CHIP_DAMAGE, cfg.Simulation.ChipDamage,
			"Unset keys should keep their defaults")
		require.Equal(t, "debug", cfg.Logging.Level)
		require.True(t, cfg.Logging.Pretty)
		require.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("rejects non-positive simulation parameters", func(t *testing.T) {
		for name, content := range map[string]string{
			"zero tick":          "[simulation]\ntick_seconds = 0.0\n",
			"negative max_ticks": "[simulation]\nmax_ticks = -1\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := Load(writeConfig(t, content))
				require.Error(t, err)
			})
		}
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[simulation\ntick_seconds = 0.5"))
		require.Error(t, err)
	})
}

func TestTuning(t *testing.T) {
	t.Run("maps the simulation section onto combat tuning", func(t *testing.T) {
		cfg := Default()
		cfg.Simulation.ChipDamage = 1.5
		cfg.Simulation.SkirmishTicks = 12
		cfg.Simulation.MaxTicks = 900

		tuning := cfg.Tuning()
		require.Equal(t, 1.5, tuning.ChipDamage)
		require.Equal(t, 12, tuning.SkirmishTicks)
		require.Equal(t, 900, tuning.MaxTicks)
	})
}
