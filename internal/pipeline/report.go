// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Report is the on-disk record of one run: what was asked for and what
// happened to every listing. Operators keep it next to the ledger to
// review classifications without querying the backend.
type Report struct {
	Run     RunInfo `yaml:"run"`
	Summary Summary `yaml:"summary"`
}

// RunInfo stores the parameters a run was started with.
type RunInfo struct {
	Sources   []string  `yaml:"sources"`
	Force     bool      `yaml:"force"`
	DryRun    bool      `yaml:"dry_run"`
	Deadline  string    `yaml:"deadline"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteReport saves a run report as YAML.
func WriteReport(path string, info RunInfo, summary Summary) error {
	data, err := yaml.Marshal(&Report{Run: info, Summary: summary})
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}
