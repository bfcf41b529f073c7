// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"bytes"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// LoadRules reads rule tables from a YAML file and validates them.
// Unknown top-level keys are rejected so a misspelled table name does not
// silently leave that axis empty.
func LoadRules(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rule tables and validates them.
func ParseRules(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing YAML: %v", ErrInvalidRules, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalRules encodes cfg as YAML in the layout LoadRules reads.
func MarshalRules(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshaling rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling rules: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteRules writes cfg to path as YAML.
func WriteRules(path string, cfg Config) error {
	data, err := MarshalRules(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
