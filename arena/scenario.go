package arena

import (
	"fmt"
	"os"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"warfield/combat"
)

// ResultEnv exposes one run's outcome to expectation expressions.
type ResultEnv struct {
	Winner             string
	Outcome            string
	Draw               bool
	Ticks              int
	Duration           float64
	AttackerCasualties int
	DefenderCasualties int
	AttackerFinalHP    float64
	DefenderFinalHP    float64
}

// Scenario is one arena matchup: a fixed setup run a number of times with
// seeded roster variation. An optional expectation expression is checked
// against every run's result.
type Scenario struct {
	Name       string
	Terrain    combat.Terrain
	Entrenched bool
	Attacker   combat.Army
	Defender   combat.Army

	Runs        int
	Seed        uint64
	Jitter      float64 // fractional roster variation per run, 0 = exact replays
	TickSeconds float64

	expect *vm.Program
}

type scenarioFile struct {
	Scenarios []scenarioEntry `yaml:"scenarios"`
}

type scenarioEntry struct {
	Name        string    `yaml:"name"`
	Terrain     string    `yaml:"terrain"`
	Entrenched  bool      `yaml:"entrenched"`
	Attacker    armyEntry `yaml:"attacker"`
	Defender    armyEntry `yaml:"defender"`
	Runs        int       `yaml:"runs"`
	Seed        uint64    `yaml:"seed"`
	Jitter      float64   `yaml:"jitter"`
	TickSeconds float64   `yaml:"tick_seconds"`
	Expect      string    `yaml:"expect"`
}

type armyEntry struct {
	Name      string          `yaml:"name"`
	Owner     string          `yaml:"owner"`
	Units     map[string]int  `yaml:"units"`
	Commander *commanderEntry `yaml:"commander"`
}

type commanderEntry struct {
	Name      string `yaml:"name"`
	Specialty string `yaml:"specialty"`
	Level     int    `yaml:"level"`
}

// LoadScenarios reads a YAML scenario file. Expectation expressions are
// compiled once here; a scenario that fails to compile rejects the file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	scenarios := make([]Scenario, 0, len(file.Scenarios))
	for _, entry := range file.Scenarios {
		scenario, err := buildScenario(entry)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", entry.Name, err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func buildScenario(entry scenarioEntry) (Scenario, error) {
	terrain, err := combat.ParseTerrain(entry.Terrain)
	if err != nil {
		return Scenario{}, err
	}
	attacker, err := buildArmy(entry.Attacker)
	if err != nil {
		return Scenario{}, err
	}
	defender, err := buildArmy(entry.Defender)
	if err != nil {
		return Scenario{}, err
	}

	scenario := Scenario{
		Name:        entry.Name,
		Terrain:     terrain,
		Entrenched:  entry.Entrenched,
		Attacker:    attacker,
		Defender:    defender,
		Runs:        entry.Runs,
		Seed:        entry.Seed,
		Jitter:      entry.Jitter,
		TickSeconds: entry.TickSeconds,
	}
	if scenario.Runs <= 0 {
		scenario.Runs = 1
	}

	if entry.Expect != "" {
		program, err := expr.Compile(entry.Expect, expr.Env(ResultEnv{}), expr.AsBool())
		if err != nil {
			return Scenario{}, fmt.Errorf("compile expect: %w", err)
		}
		scenario.expect = program
	}
	return scenario, nil
}

func buildArmy(entry armyEntry) (combat.Army, error) {
	army := combat.Army{
		Name:  entry.Name,
		Owner: entry.Owner,
		Units: combat.Roster{},
	}
	for name, count := range entry.Units {
		unitType, err := combat.ParseUnitType(name)
		if err != nil {
			return combat.Army{}, err
		}
		army.Units[unitType] = count
	}
	if entry.Commander != nil {
		specialty, err := combat.ParseSpecialty(entry.Commander.Specialty)
		if err != nil {
			return combat.Army{}, err
		}
		army.Commander = &combat.Commander{
			Name:      entry.Commander.Name,
			Specialty: specialty,
			Level:     entry.Commander.Level,
		}
	}
	return army, nil
}

// checkExpectation runs the compiled expectation against one result.
// Scenarios without an expectation always pass.
func (s *Scenario) checkExpectation(env ResultEnv) (bool, error) {
	if s.expect == nil {
		return true, nil
	}
	result, err := vm.Run(s.expect, env)
	if err != nil {
		return false, fmt.Errorf("evaluate expect: %w", err)
	}
	return result.(bool), nil
}
