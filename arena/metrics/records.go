package metrics

// RunRecord captures one headless simulation run of a scenario.
type RunRecord struct {
	Scenario           string
	Run                int
	Seed               uint64
	Outcome            string
	Winner             string
	Ticks              int
	Duration           float64
	AttackerCasualties int
	DefenderCasualties int
	Expected           bool // expectation expression result, true when none set
}

// ScenarioRecord aggregates the runs of one scenario.
type ScenarioRecord struct {
	Name         string
	Runs         int
	AttackerWins int
	DefenderWins int
	Draws        int
	ExpectMet    int
}
