package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "already normalized",
			input:  "acme-co",
			expect: "acme-co",
		},
		{
			name:   "lowercases and hyphenates spaces",
			input:  "Acme Inc!",
			expect: "acme-inc",
		},
		{
			name:   "strips diacritics",
			input:  "Café Über",
			expect: "cafe-uber",
		},
		{
			name:   "collapses whitespace runs",
			input:  "acme \t  widgets\n co",
			expect: "acme-widgets-co",
		},
		{
			name:   "non-breaking space hyphenates",
			input:  "Acme\u00a0Inc",
			expect: "acme-inc",
		},
		{
			name:   "unicode spaces and separators hyphenate",
			input:  "Acme\u2003Inc\u2028Co",
			expect: "acme-inc-co",
		},
		{
			name:   "keeps dots underscores and hyphens",
			input:  "acme.co_v2-beta",
			expect: "acme.co_v2-beta",
		},
		{
			name:   "drops punctuation and emoji",
			input:  "Acme & Sons 🚀 (HQ)",
			expect: "acme-sons-hq",
		},
		{
			name:   "trims boundary hyphens",
			input:  " -Acme- ",
			expect: "acme",
		},
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
		{
			name:   "symbols only normalize to empty",
			input:  "!!! ???",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.expect, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"Acme Inc!", "Café Über", "  spaced   out  ", "déjà-vu.io", "Acme\u00a0Inc", "new", ""}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeFormatInvariant(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^$|^[a-z0-9_.](?:[a-z0-9_.-]*[a-z0-9_.])?$`)
	inputs := []string{
		"Acme Inc!", "--weird--", "ÀÉÎÕÜ", "a", "-", "x y-z", "tabs\there", "ümlaut GmbH",
	}
	for _, in := range inputs {
		got := Normalize(in)
		require.Regexp(t, pattern, got, "input %q", in)
	}
}

func TestRandomSuffix(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	alnum := regexp.MustCompile(`^[A-Za-z0-9]+$`)
	for range 100 {
		s := RandomSuffix()
		require.Len(t, s, suffixLength)
		require.Regexp(t, alnum, s)
		seen[s] = struct{}{}
	}
	// 100 draws from a 62^6 space colliding down to a handful would mean a
	// broken source.
	require.Greater(t, len(seen), 90)
}
