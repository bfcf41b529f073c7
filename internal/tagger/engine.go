// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tagger assigns degree level, field of study, theme and UN
// Sustainable Development Goal codes to funding-opportunity text using
// ordered keyword rule tables, plus a confidence score derived from how
// many labels matched.
//
// An Engine is immutable after construction and safe for concurrent use.
package tagger

import (
	"math"
	"strings"
)

// Fallback labels used when an axis has no keyword hits.
const (
	DefaultDegree = "Postgraduate"
	DefaultField  = "General"
	DefaultTheme  = "Education"
	DefaultSDG    = "SDG4"
)

// confidenceDivisor turns the number of matched labels into a score.
// Downstream consumers depend on the resulting range; keep it at 10.
const confidenceDivisor = 10.0

// Result is the classification of one piece of text.
type Result struct {
	DegreeLevel string `json:"degree_level" yaml:"degree_level"`
	Field       string `json:"field" yaml:"field"`
	Theme       string `json:"theme" yaml:"theme"`

	// SDGTags lists every matched SDG label in table order, or the single
	// default code. Never empty.
	SDGTags []string `json:"sdg_tags" yaml:"sdg_tags"`

	// ConfidenceScore is the count of matched labels across all axes over
	// ten, capped at 1 and rounded to two decimals. It measures how much
	// signal the text carried, not the probability of being right.
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// Record is the flat form of a Result handed to the ingest backend.
type Record struct {
	DegreeLevel     string  `json:"degree_level" yaml:"degree_level"`
	Field           string  `json:"field" yaml:"field"`
	Theme           string  `json:"theme" yaml:"theme"`
	SDGTags         string  `json:"sdg_tags" yaml:"sdg_tags"`
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// Record flattens r, joining the SDG codes with commas.
func (r Result) Record() Record {
	return Record{
		DegreeLevel:     r.DegreeLevel,
		Field:           r.Field,
		Theme:           r.Theme,
		SDGTags:         strings.Join(r.SDGTags, ","),
		ConfidenceScore: r.ConfidenceScore,
	}
}

// Explanation carries a Result together with the raw per-axis scores it was
// resolved from.
type Explanation struct {
	Result Result `json:"result" yaml:"result"`
	Degree Scores `json:"degree_scores" yaml:"degree_scores"`
	Field  Scores `json:"field_scores" yaml:"field_scores"`
	SDG    Scores `json:"sdg_scores" yaml:"sdg_scores"`
	Theme  Scores `json:"theme_scores" yaml:"theme_scores"`
}

// Fallbacks returns the axes that had no hits and resolved to their default.
func (x Explanation) Fallbacks() []Axis {
	var axes []Axis
	for _, a := range Axes {
		if len(x.Scores(a)) == 0 {
			axes = append(axes, a)
		}
	}
	return axes
}

// Scores returns the raw scores for axis.
func (x Explanation) Scores(axis Axis) Scores {
	switch axis {
	case AxisDegree:
		return x.Degree
	case AxisField:
		return x.Field
	case AxisSDG:
		return x.SDG
	case AxisTheme:
		return x.Theme
	}
	return nil
}

// Engine classifies text against four compiled rule tables.
type Engine struct {
	rules  Config
	degree *Scorer
	field  *Scorer
	sdg    *Scorer
	theme  *Scorer
}

// New validates cfg and compiles its tables. cfg is copied; later changes
// to it do not affect the engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rules := cfg.Clone()
	return &Engine{
		rules:  rules,
		degree: newScorer(rules.Degree),
		field:  newScorer(rules.Field),
		sdg:    newScorer(rules.SDG),
		theme:  newScorer(rules.Theme),
	}, nil
}

// Default returns an engine over DefaultConfig.
func Default() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic("tagger: built-in rules are invalid: " + err.Error())
	}
	return e
}

// Rules returns a copy of the engine's rule tables.
func (e *Engine) Rules() Config {
	return e.rules.Clone()
}

// Classify tags title and description. It never fails: text without any
// keyword hits resolves to the default labels with confidence 0.
func (e *Engine) Classify(title, description string) Result {
	return e.Explain(title, description).Result
}

// Explain classifies like Classify and also returns the per-axis scores.
func (e *Engine) Explain(title, description string) Explanation {
	text := Normalize(title + " " + description)

	x := Explanation{
		Degree: e.degree.Score(text),
		Field:  e.field.Score(text),
		SDG:    e.sdg.Score(text),
		Theme:  e.theme.Score(text),
	}

	sdgs := x.SDG.Labels()
	if len(sdgs) == 0 {
		sdgs = []string{DefaultSDG}
	}

	x.Result = Result{
		DegreeLevel:     bestOr(x.Degree, DefaultDegree),
		Field:           bestOr(x.Field, DefaultField),
		Theme:           bestOr(x.Theme, DefaultTheme),
		SDGTags:         sdgs,
		ConfidenceScore: confidence(len(x.Degree) + len(x.Field) + len(x.Theme) + len(x.SDG)),
	}
	return x
}

func bestOr(s Scores, fallback string) string {
	if label, ok := s.Best(); ok {
		return label
	}
	return fallback
}

func confidence(matched int) float64 {
	c := math.Min(float64(matched)/confidenceDivisor, 1.0)
	return math.Round(c*100) / 100
}
