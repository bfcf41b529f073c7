// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEmptyInputFallsBack(t *testing.T) {
	got := Default().Classify("", "")

	assert.Equal(t, Result{
		DegreeLevel:     "Postgraduate",
		Field:           "General",
		Theme:           "Education",
		SDGTags:         []string{"SDG4"},
		ConfidenceScore: 0,
	}, got)
	assert.Equal(t, "SDG4", got.Record().SDGTags)
}

func TestClassifyDefaultRules(t *testing.T) {
	tests := []struct {
		name  string
		title string
		desc  string
		want  Result
	}{
		{
			name:  "phd in ai for climate research",
			title: "PhD in Artificial Intelligence for Climate Research",
			want: Result{
				DegreeLevel: "PhD",
				// Artificial Intelligence and Climate both have one hit;
				// Artificial Intelligence is declared first.
				Field: "Artificial Intelligence",
				// Sustainability (climate) ties Innovation (research).
				Theme:           "Sustainability",
				SDGTags:         []string{"SDG13"},
				ConfidenceScore: 0.6,
			},
		},
		{
			name:  "several sdgs in table order",
			title: "Scholarship for Agriculture and Climate Education",
			want: Result{
				DegreeLevel:     "Postgraduate",
				Field:           "Agriculture",
				Theme:           "Sustainability",
				SDGTags:         []string{"SDG2", "SDG4", "SDG13"},
				ConfidenceScore: 0.6,
			},
		},
		{
			name:  "punctuated degree abbreviation",
			title: "M.Sc. Engineering!!",
			want: Result{
				DegreeLevel:     "MSc",
				Field:           "Engineering",
				Theme:           "Education",
				SDGTags:         []string{"SDG9"},
				ConfidenceScore: 0.3,
			},
		},
		{
			name:  "postgraduate counts graduate too",
			title: "Postgraduate Scholarship",
			want: Result{
				DegreeLevel:     "Postgraduate",
				Field:           "General",
				Theme:           "Education",
				SDGTags:         []string{"SDG4"},
				ConfidenceScore: 0.2,
			},
		},
		{
			name:  "description joined with a single space",
			title: "Smart",
			desc:  "Farm grants",
			want: Result{
				DegreeLevel:     "Postgraduate",
				Field:           "Agriculture",
				Theme:           "Smart Systems",
				SDGTags:         []string{"SDG4"},
				ConfidenceScore: 0.2,
			},
		},
	}

	e := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Classify(tt.title, tt.desc))
		})
	}
}

func TestClassifyIgnoresCaseAndPunctuation(t *testing.T) {
	e := Default()
	assert.Equal(t, e.Classify("msc engineering", ""), e.Classify("M.Sc. Engineering!!", ""))
	assert.Equal(t, e.Classify("phd, machine-learning", ""), e.Classify("PHD MACHINELEARNING", ""))
}

func TestClassifyTieBreakFollowsDeclarationOrder(t *testing.T) {
	alphaFirst := Config{Degree: RuleTable{
		{Label: "Alpha", Keywords: []string{"alpha"}},
		{Label: "Beta", Keywords: []string{"beta"}},
	}}
	betaFirst := Config{Degree: RuleTable{
		{Label: "Beta", Keywords: []string{"beta"}},
		{Label: "Alpha", Keywords: []string{"alpha"}},
	}}

	e1, err := New(alphaFirst)
	require.NoError(t, err)
	e2, err := New(betaFirst)
	require.NoError(t, err)

	assert.Equal(t, "Alpha", e1.Classify("beta and alpha", "").DegreeLevel)
	assert.Equal(t, "Beta", e2.Classify("beta and alpha", "").DegreeLevel)
}

func TestClassifyHigherCountBeatsEarlierLabel(t *testing.T) {
	e, err := New(Config{Field: RuleTable{
		{Label: "First", Keywords: []string{"alpha"}},
		{Label: "Second", Keywords: []string{"beta", "gamma"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "Second", e.Classify("alpha beta gamma", "").Field)
}

func TestClassifyDefaultTieBreaks(t *testing.T) {
	e := Default()

	// One hit each on Engineering ("software") and Health ("health").
	assert.Equal(t, "Engineering", e.Classify("Health software", "").Field)
	// One hit each on MEng and MSc.
	assert.Equal(t, "MEng", e.Classify("MSc or MEng", "").DegreeLevel)
}

func TestConfidenceIsCappedAtOne(t *testing.T) {
	table := RuleTable{
		{Label: "X", Keywords: []string{"x"}},
		{Label: "Y", Keywords: []string{"y"}},
		{Label: "Z", Keywords: []string{"z"}},
	}
	e, err := New(Config{Degree: table, Field: table, SDG: table, Theme: table})
	require.NoError(t, err)

	got := e.Classify("x y z", "")
	assert.Equal(t, 1.0, got.ConfidenceScore)
	assert.Equal(t, []string{"X", "Y", "Z"}, got.SDGTags)
}

func TestClassifyInvariants(t *testing.T) {
	inputs := [][2]string{
		{"", ""},
		{"   ", "\n\t"},
		{"!!!???", "..."},
		{"Global green innovation in smart sustainable agriculture technology", "medical health engineering education climate"},
		{"PhD doctoral doctorate MEng MSc master of science postgraduate", "AI data science farming biotech renewable development"},
		{"日本語のタイトル", "описание"},
		{"said", "training"},
	}

	e := Default()
	for _, in := range inputs {
		got := e.Classify(in[0], in[1])

		assert.GreaterOrEqual(t, got.ConfidenceScore, 0.0, "input %q", in)
		assert.LessOrEqual(t, got.ConfidenceScore, 1.0, "input %q", in)
		assert.Equal(t, math.Round(got.ConfidenceScore*100)/100, got.ConfidenceScore, "input %q", in)
		assert.NotEmpty(t, got.SDGTags, "input %q", in)

		seen := map[string]bool{}
		for _, tag := range got.SDGTags {
			assert.False(t, seen[tag], "duplicate SDG tag %s for %q", tag, in)
			seen[tag] = true
		}

		assert.Equal(t, got, e.Classify(in[0], in[1]), "classification must be deterministic")
	}
}

func TestClassifyConcurrentCallers(t *testing.T) {
	e := Default()
	title := "PhD in Artificial Intelligence for Climate Research"
	want := e.Classify(title, "green technology")

	var wg sync.WaitGroup
	results := make([]Result, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Classify(title, "green technology")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestExplainReportsScoresAndFallbacks(t *testing.T) {
	x := Default().Explain("Postgraduate Scholarship", "")

	assert.Equal(t, Scores{{Label: "Postgraduate", Hits: 2}}, x.Degree)
	assert.Equal(t, Scores{{Label: "SDG4", Hits: 1}}, x.SDG)
	assert.Empty(t, x.Field)
	assert.Empty(t, x.Theme)
	assert.Equal(t, []Axis{AxisField, AxisTheme}, x.Fallbacks())
}

func TestNewRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty label", Config{Field: RuleTable{{Label: "", Keywords: []string{"x"}}}}},
		{"duplicate label", Config{Theme: RuleTable{
			{Label: "A", Keywords: []string{"x"}},
			{Label: "A", Keywords: []string{"y"}},
		}}},
		{"empty keyword", Config{SDG: RuleTable{{Label: "SDG1", Keywords: []string{""}}}}},
		{"uppercase keyword", Config{Degree: RuleTable{{Label: "PhD", Keywords: []string{"PhD"}}}}},
		{"punctuated keyword", Config{Degree: RuleTable{{Label: "MSc", Keywords: []string{"m.sc"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRules), "error %v should wrap ErrInvalidRules", err)
		})
	}
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := Config{Field: RuleTable{{Label: "Space", Keywords: []string{"orbit"}}}}
	e, err := New(cfg)
	require.NoError(t, err)

	cfg.Field[0].Label = "Changed"
	cfg.Field[0].Keywords[0] = "ocean"

	assert.Equal(t, "Space", e.Classify("low orbit", "").Field)
	assert.Equal(t, "Space", e.Rules().Field[0].Label)
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	assert.Equal(t, []string{"PhD", "MEng", "MSc", "Postgraduate"}, cfg.Degree.Labels())
	assert.Equal(t, []string{"Artificial Intelligence", "Engineering", "Agriculture", "Health", "Climate"}, cfg.Field.Labels())
	assert.Equal(t, []string{"SDG2", "SDG3", "SDG4", "SDG9", "SDG13"}, cfg.SDG.Labels())
	assert.Equal(t, []string{"Smart Systems", "Sustainability", "Innovation", "Development"}, cfg.Theme.Labels())
}
