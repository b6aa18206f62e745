package fuzzy

import "unicode"

// Result describes one successful match.
type Result struct {
	// Score is the match quality. Higher is better. Scores are only
	// comparable between results produced by the same strategy.
	Score int

	// Offsets holds the rune index in the candidate of every matched
	// pattern rune, in strictly increasing order. Strategies that do not
	// track positions leave it nil.
	Offsets []int
}

// Strategy decides whether a pattern matches a candidate and scores the
// match. Implementations are pure functions of their inputs and safe for
// concurrent use.
type Strategy interface {
	// Match reports whether pattern matches candidate. The Result is
	// meaningful only when the second return value is true.
	Match(pattern, candidate string) (Result, bool)
}

// lowerRunes returns rs lowercased for case-insensitive comparison.
func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}
