// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// SourceFile is the on-disk representation of a research run. The writer can
// save gathered sources to a file and feed them to outline generation later
// without re-querying APIs.
// Implements: prd002-research R3.2, R3.3.
type SourceFile struct {
	Query       string         `yaml:"query"`
	RetrievedAt time.Time      `yaml:"retrieved_at"`
	Summary     SourceSummary  `yaml:"summary"`
	Sources     []types.Source `yaml:"sources"`
}

// SourceSummary stores result statistics for the run.
type SourceSummary struct {
	Total             int      `yaml:"total"`
	DuplicatesRemoved int      `yaml:"duplicates_removed"`
	BackendErrors     []string `yaml:"backend_errors,omitempty"`
}

// SaveSources writes the research output to a YAML file.
func SaveSources(path string, query string, out Output) error {
	sf := SourceFile{
		Query:       query,
		RetrievedAt: time.Now(),
		Summary: SourceSummary{
			Total:             len(out.Sources),
			DuplicatesRemoved: out.DupsRemoved,
			BackendErrors:     out.BackendErrors,
		},
		Sources: out.Sources,
	}

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling source file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSources loads a previously saved source file from disk.
func LoadSources(path string) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source file: %w", err)
	}
	var sf SourceFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing source file: %w", err)
	}
	return &sf, nil
}
