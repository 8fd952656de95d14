// Package slug derives URL-safe identifiers from free-text display names.
package slug

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// \s alone is ASCII-only in RE2; cover Unicode spacing separators and
	// the line/paragraph separators too so "Acme Inc" hyphenates.
	whitespaceRuns = regexp.MustCompile(`[\s\p{Zs}\x{2028}\x{2029}]+`)
	disallowed     = regexp.MustCompile(`[^\w.-]`)

	// NFD decomposition followed by removal of combining marks collapses
	// accented letters to their base ASCII form ("é" -> "e").
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
)

// Normalize converts arbitrary text into a canonical URL path segment:
// diacritics stripped, whitespace runs replaced by single hyphens, anything
// outside word characters, dots, and hyphens dropped, the result lowercased,
// and leading/trailing hyphens trimmed. It never fails; empty input yields
// the empty string. Normalize is idempotent.
func Normalize(raw string) string {
	s, _, err := transform.String(stripMarks, raw)
	if err != nil {
		// transform only errors on malformed UTF-8; fall back to the raw
		// input so the remaining passes still apply.
		s = raw
	}

	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	return strings.Trim(s, "-")
}

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength   = 6
)

// RandomSuffix returns a short alphanumeric token used to disambiguate
// colliding slugs. Distinctness is the requirement, not secrecy, so the
// shared math/rand source is sufficient. Callers must lowercase the final
// slug themselves since the token may contain uppercase letters.
func RandomSuffix() string {
	var b strings.Builder
	b.Grow(suffixLength)
	for range suffixLength {
		b.WriteByte(suffixAlphabet[rand.IntN(len(suffixAlphabet))])
	}
	return b.String()
}
