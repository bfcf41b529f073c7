// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"errors"
	"fmt"
)

// ErrInvalidRules is wrapped by every rule validation failure.
var ErrInvalidRules = errors.New("invalid rules")

// Axis names one classification dimension.
type Axis string

const (
	AxisDegree Axis = "degree"
	AxisField  Axis = "field"
	AxisSDG    Axis = "sdg"
	AxisTheme  Axis = "theme"
)

// Rule maps one label to the keywords that vote for it.
type Rule struct {
	// Label is the value assigned when this rule wins (e.g. "PhD", "SDG13").
	Label string `json:"label" yaml:"label"`

	// Keywords are matched as substrings of the normalized text. They must
	// already be in normalized form: lowercase, no punctuation.
	Keywords []string `json:"keywords" yaml:"keywords,flow"`
}

// RuleTable is an ordered list of rules for one axis. Declaration order is
// significant: when two labels share the highest hit count, the one declared
// first wins, and multi-label axes report labels in this order.
type RuleTable []Rule

// Labels returns the table's labels in declaration order.
func (t RuleTable) Labels() []string {
	labels := make([]string, len(t))
	for i, r := range t {
		labels[i] = r.Label
	}
	return labels
}

func (t RuleTable) clone() RuleTable {
	if t == nil {
		return nil
	}
	out := make(RuleTable, len(t))
	for i, r := range t {
		out[i] = Rule{Label: r.Label, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Config holds the four rule tables an Engine classifies against.
type Config struct {
	Degree RuleTable `json:"degree" yaml:"degree"`
	Field  RuleTable `json:"field" yaml:"field"`
	SDG    RuleTable `json:"sdg" yaml:"sdg"`
	Theme  RuleTable `json:"theme" yaml:"theme"`
}

// Table returns the rule table for axis, or nil for an unknown axis.
func (c Config) Table(axis Axis) RuleTable {
	switch axis {
	case AxisDegree:
		return c.Degree
	case AxisField:
		return c.Field
	case AxisSDG:
		return c.SDG
	case AxisTheme:
		return c.Theme
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate an engine's tables.
func (c Config) Clone() Config {
	return Config{
		Degree: c.Degree.clone(),
		Field:  c.Field.clone(),
		SDG:    c.SDG.clone(),
		Theme:  c.Theme.clone(),
	}
}

// Axes lists the classification axes in the order the engine scores them.
var Axes = []Axis{AxisDegree, AxisField, AxisSDG, AxisTheme}

// Validate checks every table. Labels must be non-empty and unique within
// their table; keywords must be non-empty and already normalized, since a
// keyword carrying uppercase or punctuation can never match.
func (c Config) Validate() error {
	for _, axis := range Axes {
		if err := validateTable(string(axis), c.Table(axis)); err != nil {
			return err
		}
	}
	return nil
}

func validateTable(name string, table RuleTable) error {
	seen := make(map[string]bool, len(table))
	for i, r := range table {
		if r.Label == "" {
			return fmt.Errorf("%w: %s table: rule %d has an empty label", ErrInvalidRules, name, i)
		}
		if seen[r.Label] {
			return fmt.Errorf("%w: %s table: duplicate label %q", ErrInvalidRules, name, r.Label)
		}
		seen[r.Label] = true

		for _, kw := range r.Keywords {
			if kw == "" {
				return fmt.Errorf("%w: %s table: label %q has an empty keyword", ErrInvalidRules, name, r.Label)
			}
			if Normalize(kw) != kw {
				return fmt.Errorf("%w: %s table: label %q: keyword %q is not normalized (want %q)",
					ErrInvalidRules, name, r.Label, kw, Normalize(kw))
			}
		}
	}
	return nil
}

// DefaultConfig returns the built-in rule tables. Classified records already
// stored downstream were produced with exactly these keywords and this order.
func DefaultConfig() Config {
	return Config{
		Degree: RuleTable{
			{Label: "PhD", Keywords: []string{"phd", "doctoral", "doctorate"}},
			{Label: "MEng", Keywords: []string{"meng", "master of engineering"}},
			{Label: "MSc", Keywords: []string{"msc", "master of science"}},
			{Label: "Postgraduate", Keywords: []string{"postgraduate", "graduate"}},
		},
		Field: RuleTable{
			{Label: "Artificial Intelligence", Keywords: []string{"ai", "artificial intelligence", "machine learning", "data science"}},
			{Label: "Engineering", Keywords: []string{"engineering", "mechanical", "electrical", "civil", "software"}},
			{Label: "Agriculture", Keywords: []string{"agriculture", "farming", "agritech", "smart farm"}},
			{Label: "Health", Keywords: []string{"health", "medical", "biotech"}},
			{Label: "Climate", Keywords: []string{"climate", "environment", "sustainability", "renewable"}},
		},
		SDG: RuleTable{
			{Label: "SDG2", Keywords: []string{"agriculture", "food", "farming"}},
			{Label: "SDG3", Keywords: []string{"health", "medical"}},
			{Label: "SDG4", Keywords: []string{"education", "scholarship", "learning"}},
			{Label: "SDG9", Keywords: []string{"engineering", "technology", "innovation"}},
			{Label: "SDG13", Keywords: []string{"climate", "environment", "sustainability"}},
		},
		Theme: RuleTable{
			{Label: "Smart Systems", Keywords: []string{"ai", "automation", "smart", "intelligent"}},
			{Label: "Sustainability", Keywords: []string{"sustainability", "climate", "green", "renewable"}},
			{Label: "Innovation", Keywords: []string{"innovation", "technology", "research"}},
			{Label: "Development", Keywords: []string{"development", "global", "international"}},
		},
	}
}
