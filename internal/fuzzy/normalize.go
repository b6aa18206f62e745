package fuzzy

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritic marks removed, so "café" matches "cafe".
// The input is decomposed, stripped of combining marks, and recomposed.
func Fold(s string) string {
	// Transformers carry internal state, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Folded wraps a strategy so both pattern and candidate are folded before
// matching. Offsets in results index the folded candidate's runes, which
// can differ from the original when it contains combining sequences.
func Folded(s Strategy) Strategy {
	return &folded{inner: s}
}

type folded struct {
	inner Strategy
}

// Match implements Strategy.
func (f *folded) Match(pattern, candidate string) (Result, bool) {
	return f.inner.Match(Fold(pattern), Fold(candidate))
}
