// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"punctuation stripped", "M.Sc. Engineering!!", "msc engineering"},
		{"digits kept", "Horizon-2030 Call #7", "horizon2030 call 7"},
		{"whitespace kept verbatim", "Hello,\tWorld\n  Again", "hello\tworld\n  again"},
		{"non-ascii letters dropped", "Café Ünïversität", "caf nversitt"},
		{"slashes join words", "AI/ML", "aiml"},
		{"no-break space kept", "open\u00a0call", "open\u00a0call"},
		{"separator controls kept", "a\x1cb\x1fc", "a\x1cb\x1fc"},
		{"other controls dropped", "a\x00b\x07c", "abc"},
		{"only symbols", "$$$ --- ???", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"M.Sc. Engineering!!", "Ph.D (Doctoral) — 2025", "  spaced   out  "} {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}
