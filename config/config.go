package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"warfield/combat"
	"warfield/meta"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	TickSeconds   float64 `toml:"tick_seconds"`   // host tick cadence
	MaxTicks      int     `toml:"max_ticks"`      // draw budget per pairing
	ChipDamage    float64 `toml:"chip_damage"`    // minimum per-kind damage
	SkirmishTicks int     `toml:"skirmish_ticks"` // ticks recorded as skirmish
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{
			TickSeconds:   meta.DEFAULT_TICK_SECONDS,
			MaxTicks:      meta.MAX_TICKS,
			ChipDamage:    meta.CHIP_DAMAGE,
			SkirmishTicks: meta.SKIRMISH_TICKS,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is not
// an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Simulation.TickSeconds <= 0 {
		return cfg, fmt.Errorf("config: tick_seconds must be positive")
	}
	if cfg.Simulation.MaxTicks <= 0 {
		return cfg, fmt.Errorf("config: max_ticks must be positive")
	}
	return cfg, nil
}

// Tuning converts the simulation section into combat tuning parameters.
func (c Config) Tuning() combat.Tuning {
	return combat.Tuning{
		ChipDamage:    c.Simulation.ChipDamage,
		SkirmishTicks: c.Simulation.SkirmishTicks,
		MaxTicks:      c.Simulation.MaxTicks,
	}
}
