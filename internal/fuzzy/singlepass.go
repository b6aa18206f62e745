package fuzzy

import "unicode"

// SinglePassWeights controls the incremental scorer.
type SinglePassWeights struct {
	// BoundaryBonus is added when a match follows a separator or starts a
	// new word.
	BoundaryBonus int

	// RunBonus is added when a match directly extends the previous match.
	RunBonus int

	// SkipPenalty is applied per skipped candidate rune. Should be negative.
	SkipPenalty int

	// LeadingSkipPenalty accumulates when a word-leading rune is skipped.
	// Should be negative.
	LeadingSkipPenalty int

	// ErrorFloor bounds the accumulated leading-skip penalty. Should be
	// negative.
	ErrorFloor int
}

// DefaultSinglePassWeights returns the standard single-pass weights.
func DefaultSinglePassWeights() SinglePassWeights {
	return SinglePassWeights{
		BoundaryBonus:      10,
		RunBonus:           5,
		SkipPenalty:        -1,
		LeadingSkipPenalty: -3,
		ErrorFloor:         -9,
	}
}

// SinglePass scores candidates in one left-to-right walk without
// backtracking. It is cheaper than Backtrack but settles for the leftmost
// placement and records no offsets.
type SinglePass struct {
	weights SinglePassWeights
}

// NewSinglePass creates a SinglePass strategy.
func NewSinglePass(w SinglePassWeights) *SinglePass {
	return &SinglePass{weights: w}
}

// Match walks candidate once, consuming pattern runes in order. An empty
// pattern matches only an empty candidate, with score zero. Candidate runes
// after the last consumed pattern rune are not scanned and not penalized.
// Result.Offsets is always nil.
func (s *SinglePass) Match(pattern, candidate string) (Result, bool) {
	pat := lowerRunes([]rune(pattern))
	text := []rune(candidate)
	if len(pat) == 0 {
		return Result{}, len(text) == 0
	}

	folded := lowerRunes(text)
	var (
		score int
		errs  int
		pi    int
		run   bool
	)
	for ti := 0; ti < len(text) && pi < len(pat); ti++ {
		leading := isWordStart(text, ti)
		if folded[ti] == pat[pi] {
			switch {
			case ti == 0 || text[ti-1] <= ' ' || leading:
				score += s.weights.BoundaryBonus
			case run:
				score += s.weights.RunBonus
			}
			run = true
			pi++
		} else {
			score += s.weights.SkipPenalty
			if leading {
				errs += s.weights.LeadingSkipPenalty
			}
			run = false
		}
	}
	if errs < s.weights.ErrorFloor {
		errs = s.weights.ErrorFloor
	}
	score += errs

	if pi != len(pat) {
		return Result{}, false
	}
	return Result{Score: score}, true
}

// isWordStart reports whether the rune at i begins a word: uppercase with a
// non-uppercase predecessor. The candidate start counts when uppercase.
func isWordStart(rs []rune, i int) bool {
	if !unicode.IsUpper(rs[i]) {
		return false
	}
	return i == 0 || !unicode.IsUpper(rs[i-1])
}
