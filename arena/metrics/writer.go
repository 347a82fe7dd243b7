package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped output folder for one arena batch.
func NewWriter(name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join("arena", name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) WriteRunRecords(records []RunRecord) error {
	path := filepath.Join(w.baseDir, "run_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"scenario", "run", "seed", "outcome", "winner", "ticks",
		"duration", "attacker_casualties", "defender_casualties", "expected"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write run records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Scenario,
			strconv.Itoa(record.Run),
			strconv.FormatUint(record.Seed, 10),
			record.Outcome,
			record.Winner,
			strconv.Itoa(record.Ticks),
			strconv.FormatFloat(record.Duration, 'f', -1, 64),
			strconv.Itoa(record.AttackerCasualties),
			strconv.Itoa(record.DefenderCasualties),
			strconv.FormatBool(record.Expected),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write run record row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteScenarioRecords(records []ScenarioRecord) error {
	path := filepath.Join(w.baseDir, "scenario_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create scenario records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"name", "runs", "attacker_wins", "defender_wins", "draws", "expect_met"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write scenario records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Name,
			strconv.Itoa(record.Runs),
			strconv.Itoa(record.AttackerWins),
			strconv.Itoa(record.DefenderWins),
			strconv.Itoa(record.Draws),
			strconv.Itoa(record.ExpectMet),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write scenario record row: %w", err)
		}
	}

	return nil
}
