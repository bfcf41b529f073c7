// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustScorer(t *testing.T, table RuleTable) *Scorer {
	t.Helper()
	s, err := NewScorer(table)
	require.NoError(t, err)
	return s
}

func TestScorerCountsDistinctKeywords(t *testing.T) {
	s := mustScorer(t, DefaultConfig().Degree)

	tests := []struct {
		name string
		text string
		want Scores
	}{
		{"graduate inside undergraduate", "undergraduate bursary", Scores{{Label: "Postgraduate", Hits: 1}}},
		{"nested keywords both count", "postgraduate award", Scores{{Label: "Postgraduate", Hits: 2}}},
		{"repeats count once", "phd phd phd", Scores{{Label: "PhD", Hits: 1}}},
		{"several labels in table order", "doctoral and master of science", Scores{
			{Label: "PhD", Hits: 1},
			{Label: "MSc", Hits: 1},
		}},
		{"two keywords one label", "phd doctorate", Scores{{Label: "PhD", Hits: 2}}},
		{"empty text", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.text))
		})
	}
}

func TestScorerMatchesSubstrings(t *testing.T) {
	s := mustScorer(t, RuleTable{{Label: "Aid", Keywords: []string{"aid"}}})

	// Substring matching is deliberate: "aid" inside "said" is a hit.
	assert.Equal(t, Scores{{Label: "Aid", Hits: 1}}, s.Score("he said so"))
}

func TestScorerPhrasesNeedContiguousText(t *testing.T) {
	s := mustScorer(t, RuleTable{{Label: "MSc", Keywords: []string{"master of science"}}})

	assert.Len(t, s.Score("a master of science degree"), 1)
	assert.Empty(t, s.Score("master of  science"))
	assert.Empty(t, s.Score("master of\nscience"))
	assert.Empty(t, s.Score("science master"))
}

func TestScorerSharedAndDuplicateKeywords(t *testing.T) {
	s := mustScorer(t, RuleTable{
		{Label: "A", Keywords: []string{"x", "x"}},
		{Label: "B", Keywords: []string{"x"}},
		{Label: "C", Keywords: []string{"y"}},
	})

	assert.Equal(t, Scores{{Label: "A", Hits: 2}, {Label: "B", Hits: 1}}, s.Score("x"))
}

func TestScorerEmptyTable(t *testing.T) {
	s := mustScorer(t, nil)
	assert.Empty(t, s.Score("anything at all"))

	s = mustScorer(t, RuleTable{{Label: "Nothing"}})
	assert.Empty(t, s.Score("anything at all"))
}

func TestNewScorerRejectsInvalidTable(t *testing.T) {
	_, err := NewScorer(RuleTable{{Label: "Bad", Keywords: []string{"Upper"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRules))
}

func TestScoresBest(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   string
		wantOK bool
	}{
		{"empty", nil, "", false},
		{"single", Scores{{Label: "A", Hits: 1}}, "A", true},
		{"max wins", Scores{{Label: "A", Hits: 1}, {Label: "B", Hits: 3}, {Label: "C", Hits: 2}}, "B", true},
		{"tie goes to first", Scores{{Label: "A", Hits: 2}, {Label: "B", Hits: 2}}, "A", true},
		{"tie after lower", Scores{{Label: "A", Hits: 1}, {Label: "B", Hits: 2}, {Label: "C", Hits: 2}}, "B", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.scores.Best()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoresHits(t *testing.T) {
	s := Scores{{Label: "A", Hits: 2}}
	assert.Equal(t, 2, s.Hits("A"))
	assert.Equal(t, 0, s.Hits("B"))
}
