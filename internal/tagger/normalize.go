// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagger

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and drops every rune that is not an ASCII letter,
// an ASCII digit or whitespace. Whitespace is kept verbatim, so runs of
// spaces or newlines survive and a phrase keyword only matches a single
// space between its words.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case isSpace(r):
			return r
		}
		return -1
	}, strings.ToLower(s))
}

// isSpace extends unicode.IsSpace with the ASCII file, group, record and
// unit separators, which also count as whitespace for the normalizer.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
