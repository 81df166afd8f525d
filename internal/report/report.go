package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/internal/progress"
)

// Report is the JSON record of one migration run.
type Report struct {
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	Source      string                  `json:"source"`
	Destination string                  `json:"destination"`
	Force       bool                    `json:"force"`
	DryRun      bool                    `json:"dry_run"`
	Summary     map[progress.Status]int `json:"summary"`
	Outcomes    []progress.Outcome      `json:"outcomes"`
}

// Stats returns the number of outcomes per status.
func (r *Report) Stats() map[progress.Status]int {
	stats := make(map[progress.Status]int)
	for _, o := range r.Outcomes {
		stats[o.Status]++
	}
	return stats
}

// Write saves r to path, replacing any previous report atomically.
func Write(path string, r *Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving report: %w", err)
	}

	logger.Info("Saved report with %d entries to %s", len(r.Outcomes), path)
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}
