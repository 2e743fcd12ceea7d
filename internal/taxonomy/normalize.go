package taxonomy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen is the shortest token that participates in keyword matching;
// shorter words (articles, prepositions) carry no classification signal.
const minTokenLen = 3

// deaccent strips combining marks: NFD decomposition, drop Mn runes, recompose.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text, strips accents, and replaces every
// non-alphanumeric rune with a space, collapsing runs of whitespace.
// Keyword declarations and document text go through the same function so
// lookups are exact string matches.
func Normalize(s string) string {
	stripped, _, err := transform.String(deaccent, s)
	if err != nil {
		stripped = s
	}
	return Fold(stripped)
}

// Fold lowercases and replaces punctuation with spaces but keeps accents.
// Used to derive the human-readable form of matched keywords.
func Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens normalizes text and returns its words, dropping tokens shorter
// than minTokenLen runes.
func Tokens(s string) []string {
	var out []string
	for _, w := range strings.Fields(Normalize(s)) {
		if len([]rune(w)) >= minTokenLen {
			out = append(out, w)
		}
	}
	return out
}
