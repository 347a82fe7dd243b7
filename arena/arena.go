package arena

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"warfield/arena/metrics"
	"warfield/combat"
	"warfield/engine"
	"warfield/meta"
)

// Runner executes arena batches: many independent headless runs of each
// scenario, compared statistically. The engine itself stays deterministic;
// all variation is input-side, from the scenario's seeded roster jitter.
type Runner struct {
	catalog *combat.Catalog
}

// NewRunner builds a runner over a unit catalog.
func NewRunner(catalog *combat.Catalog) *Runner {
	return &Runner{catalog: catalog}
}

// RunScenario executes all runs of one scenario.
func (r *Runner) RunScenario(scenario Scenario) (metrics.ScenarioRecord, []metrics.RunRecord, error) {
	summary := metrics.ScenarioRecord{Name: scenario.Name, Runs: scenario.Runs}
	runRecords := make([]metrics.RunRecord, 0, scenario.Runs)

	for i := 0; i < scenario.Runs; i++ {
		seed := scenario.Seed + uint64(i)
		rng := rand.New(rand.NewSource(seed))

		setup := engine.Setup{
			Attacker:    jitterArmy(scenario.Attacker, scenario.Jitter, rng),
			Defender:    jitterArmy(scenario.Defender, scenario.Jitter, rng),
			Terrain:     scenario.Terrain,
			Entrenched:  scenario.Entrenched,
			TickSeconds: scenario.TickSeconds,
		}
		record, err := engine.RunToCompletion(r.catalog, setup)
		if err != nil {
			return summary, runRecords, fmt.Errorf("scenario %q run %d: %w", scenario.Name, i+1, err)
		}

		ticks := int(math.Round(record.Duration / tick(scenario)))
		env := ResultEnv{
			Winner:             record.Winner,
			Outcome:            record.Outcome.String(),
			Draw:               record.Outcome == combat.OutcomeDraw,
			Ticks:              ticks,
			Duration:           record.Duration,
			AttackerCasualties: record.Attacker.Casualties,
			DefenderCasualties: record.Defender.Casualties,
			AttackerFinalHP:    record.Attacker.FinalHP,
			DefenderFinalHP:    record.Defender.FinalHP,
		}
		expected, err := scenario.checkExpectation(env)
		if err != nil {
			return summary, runRecords, fmt.Errorf("scenario %q run %d: %w", scenario.Name, i+1, err)
		}

		switch record.Outcome {
		case combat.OutcomeAttackerWin:
			summary.AttackerWins++
		case combat.OutcomeDefenderWin:
			summary.DefenderWins++
		case combat.OutcomeDraw:
			summary.Draws++
		}
		if expected {
			summary.ExpectMet++
		}

		runRecords = append(runRecords, metrics.RunRecord{
			Scenario:           scenario.Name,
			Run:                i + 1,
			Seed:               seed,
			Outcome:            record.Outcome.String(),
			Winner:             record.Winner,
			Ticks:              ticks,
			Duration:           record.Duration,
			AttackerCasualties: record.Attacker.Casualties,
			DefenderCasualties: record.Defender.Casualties,
			Expected:           expected,
		})
	}
	return summary, runRecords, nil
}

// RunAll executes every scenario and stores the batch results as CSV.
func (r *Runner) RunAll(name string, scenarios []Scenario) error {
	log.Info().Msgf("starting %s arena batch...", name)

	scenarioRecords := []metrics.ScenarioRecord{}
	runRecords := []metrics.RunRecord{}
	for si, scenario := range scenarios {
		log.Info().Msgf("starting scenario %d of %d: %s (%d runs)...",
			si+1, len(scenarios), scenario.Name, scenario.Runs)

		summary, runs, err := r.RunScenario(scenario)
		if err != nil {
			return err
		}
		scenarioRecords = append(scenarioRecords, summary)
		runRecords = append(runRecords, runs...)

		log.Info().Msgf("completed scenario %s: %d attacker wins, %d defender wins, %d draws",
			scenario.Name, summary.AttackerWins, summary.DefenderWins, summary.Draws)
	}

	log.Info().Msgf("completed %s arena batch", name)

	writer, err := metrics.NewWriter(name)
	if err != nil {
		return fmt.Errorf("failed to create arena writer: %w", err)
	}
	err = writer.WriteScenarioRecords(scenarioRecords)
	if err != nil {
		return fmt.Errorf("failed to write scenario records: %w", err)
	}
	log.Info().Msg("stored scenario records")

	err = writer.WriteRunRecords(runRecords)
	if err != nil {
		return fmt.Errorf("failed to write run records: %w", err)
	}
	log.Info().Msg("stored run records")

	return nil
}

func tick(scenario Scenario) float64 {
	if scenario.TickSeconds > 0 {
		return scenario.TickSeconds
	}
	return meta.DEFAULT_TICK_SECONDS
}

// jitterArmy scales each unit count by up to ±jitter. Zero jitter returns
// the roster unchanged, so repeated runs replay bit-for-bit.
func jitterArmy(army combat.Army, jitter float64, rng *rand.Rand) combat.Army {
	if jitter <= 0 {
		return army
	}
	units := make(combat.Roster, len(army.Units))
	for _, unitType := range sortedRosterTypes(army.Units) {
		count := army.Units[unitType]
		scale := 1 + jitter*(2*rng.Float64()-1)
		scaled := int(math.Round(float64(count) * scale))
		if scaled < 0 {
			scaled = 0
		}
		units[unitType] = scaled
	}
	return combat.Army{
		Name:      army.Name,
		Owner:     army.Owner,
		Units:     units,
		Commander: army.Commander,
	}
}

func sortedRosterTypes(roster combat.Roster) []combat.UnitType {
	types := make([]combat.UnitType, 0, len(roster))
	for t := range roster {
		types = append(types, t)
	}
	for i := 1; i < len(types); i++ {
		for j := i; j > 0 && types[j] < types[j-1]; j-- {
			types[j], types[j-1] = types[j-1], types[j]
		}
	}
	return types
}
