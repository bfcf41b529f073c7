// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	ahocorasick "github.com/cloudflare/ahocorasick"
)

// LabelScore is the number of distinct keyword hits one label received.
type LabelScore struct {
	Label string `json:"label" yaml:"label"`
	Hits  int    `json:"hits" yaml:"hits"`
}

// Scores holds the labels of one table that matched at least one keyword,
// in table declaration order. Labels with zero hits are never present.
type Scores []LabelScore

// Best returns the label with the most hits. Ties go to the label declared
// first in the table. ok is false when nothing matched.
func (s Scores) Best() (label string, ok bool) {
	best := -1
	for i, ls := range s {
		if best < 0 || ls.Hits > s[best].Hits {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return s[best].Label, true
}

// Labels returns the matched labels in table order.
func (s Scores) Labels() []string {
	labels := make([]string, len(s))
	for i, ls := range s {
		labels[i] = ls.Label
	}
	return labels
}

// Hits returns the hit count for label, or 0 when it did not match.
func (s Scores) Hits(label string) int {
	for _, ls := range s {
		if ls.Label == label {
			return ls.Hits
		}
	}
	return 0
}

// Scorer counts keyword hits per label for one rule table. The keywords are
// compiled into a single Aho-Corasick automaton so a text is scanned once
// regardless of how many keywords the table holds.
type Scorer struct {
	table   RuleTable
	matcher *ahocorasick.Matcher

	// owners maps a dictionary index to the rule indices that list that
	// keyword. A keyword listed twice under one rule appears twice.
	owners [][]int
}

// NewScorer validates and compiles table. The table is copied.
func NewScorer(table RuleTable) (*Scorer, error) {
	if err := validateTable("rule", table); err != nil {
		return nil, err
	}
	return newScorer(table.clone()), nil
}

func newScorer(table RuleTable) *Scorer {
	s := &Scorer{table: table}

	index := make(map[string]int)
	var dict []string
	for ri, r := range table {
		for _, kw := range r.Keywords {
			di, ok := index[kw]
			if !ok {
				di = len(dict)
				index[kw] = di
				dict = append(dict, kw)
				s.owners = append(s.owners, nil)
			}
			s.owners[di] = append(s.owners[di], ri)
		}
	}

	if len(dict) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return s
}

// Score returns the labels whose keywords occur in text, which must already
// be normalized. Each keyword contributes at most one hit no matter how often
// it occurs. Safe for concurrent use.
func (s *Scorer) Score(text string) Scores {
	if s.matcher == nil || text == "" {
		return nil
	}

	counts := make([]int, len(s.table))
	for _, di := range s.matcher.MatchThreadSafe([]byte(text)) {
		for _, ri := range s.owners[di] {
			counts[ri]++
		}
	}

	var scores Scores
	for ri, n := range counts {
		if n > 0 {
			scores = append(scores, LabelScore{Label: s.table[ri].Label, Hits: n})
		}
	}
	return scores
}
