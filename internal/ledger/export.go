// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the entries matching f to path as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, f Filter, path string) error {
	entries, err := s.exportEntries(ctx, f)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the entries matching f to path as a JSON array.
func (s *Store) ExportJSON(ctx context.Context, f Filter, path string) error {
	entries, err := s.exportEntries(ctx, f)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, f Filter) ([]Entry, error) {
	entries, err := s.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
