package fuzzy

import "unicode"

// Weights controls the bonuses and penalties applied by the Backtrack
// strategy. Bonuses are cumulative across all matched positions.
type Weights struct {
	// Base is the starting score for any successful match.
	Base int

	// Sequential is added when a match immediately follows the previous
	// matched position.
	Sequential int

	// Separator is added when the rune before a match is a space or an
	// underscore.
	Separator int

	// Camel is added when the rune before a match is lowercase and the
	// matched rune is uppercase.
	Camel int

	// FirstLetter is added when the first rune of the candidate is matched.
	FirstLetter int

	// LeadingPenalty is applied per unmatched rune before the first match.
	// Should be negative.
	LeadingPenalty int

	// MaxLeadingPenalty floors the total leading penalty. Should be negative.
	MaxLeadingPenalty int

	// UnmatchedPenalty is applied per candidate rune not part of the match.
	// Should be negative.
	UnmatchedPenalty int
}

// DefaultWeights returns the standard backtracking weights.
func DefaultWeights() Weights {
	return Weights{
		Base:              100,
		Sequential:        15,
		Separator:         30,
		Camel:             30,
		FirstLetter:       15,
		LeadingPenalty:    -5,
		MaxLeadingPenalty: -15,
		UnmatchedPenalty:  -1,
	}
}

// BacktrackOptions configures the Backtrack strategy.
type BacktrackOptions struct {
	// Weights holds the scoring weights.
	Weights Weights

	// RecursionBudget bounds the total number of search frames entered per
	// Match call. The budget is shared across the whole search tree, not a
	// per-branch depth limit; once spent, remaining alternatives are pruned
	// and the greedy placement stands.
	RecursionBudget int

	// MaxMatchSlots bounds how many offsets one match may record. A match
	// that would need more slots fails closed and reports no match rather
	// than truncating the offset list.
	MaxMatchSlots int
}

// DefaultBacktrackOptions returns sensible defaults.
func DefaultBacktrackOptions() BacktrackOptions {
	return BacktrackOptions{
		Weights:         DefaultWeights(),
		RecursionBudget: 10,
		MaxMatchSlots:   128,
	}
}

// Backtrack matches case-insensitive subsequences with recursive
// backtracking. At every candidate occurrence of a pattern rune it also
// explores skipping that occurrence, so a higher-scoring later placement
// (for example a contiguous run after a separator) can win over the greedy
// leftmost one.
type Backtrack struct {
	weights Weights
	budget  int
	slots   int
}

// NewBacktrack creates a Backtrack strategy. Non-positive budget or slot
// values fall back to the defaults.
func NewBacktrack(opts BacktrackOptions) *Backtrack {
	if opts.RecursionBudget <= 0 {
		opts.RecursionBudget = DefaultBacktrackOptions().RecursionBudget
	}
	if opts.MaxMatchSlots <= 0 {
		opts.MaxMatchSlots = DefaultBacktrackOptions().MaxMatchSlots
	}
	return &Backtrack{
		weights: opts.Weights,
		budget:  opts.RecursionBudget,
		slots:   opts.MaxMatchSlots,
	}
}

// Match reports whether pattern is a case-insensitive subsequence of
// candidate and scores the best placement found within the recursion
// budget. Result.Offsets holds one rune index per pattern rune. An empty
// pattern never matches.
func (b *Backtrack) Match(pattern, candidate string) (Result, bool) {
	text := []rune(candidate)
	pat := []rune(pattern)
	if len(pat) == 0 || len(text) == 0 {
		return Result{}, false
	}

	s := &btSearch{
		pat:    lowerRunes(pat),
		text:   text,
		folded: lowerRunes(text),
		w:      b.weights,
		budget: b.budget,
		slots:  b.slots,
		// Two slabs per live recursion depth: the working offsets and the
		// best recursive branch seen so far.
		arena: make([]int, 2*(b.budget+1)*b.slots),
	}
	score, offsets, ok := s.run(0, 0, 0, nil)
	if !ok {
		return Result{}, false
	}

	out := make([]int, len(offsets))
	copy(out, offsets)
	return Result{Score: score, Offsets: out}, true
}

// btSearch carries the per-call state of one backtracking search. The arena
// replaces recursion-local buffers: every depth owns two fixed slabs of
// MaxMatchSlots offsets, so the whole search allocates once no matter how
// many branches it explores.
type btSearch struct {
	pat    []rune // lowered pattern
	text   []rune // candidate, original case
	folded []rune // lowered candidate
	w      Weights
	budget int
	slots  int
	calls  int
	arena  []int
}

// slab returns the i-th arena slab, empty with capacity MaxMatchSlots.
func (s *btSearch) slab(i int) []int {
	off := i * s.slots
	return s.arena[off:off : off+s.slots]
}

// run matches pat[pi:] against text[ti:]. src holds the offsets recorded by
// ancestor frames; this frame copies it before recording its own. The
// returned slice aliases slabs owned by this depth and must be copied by
// the caller before it spawns another frame at the same depth.
func (s *btSearch) run(pi, ti, depth int, src []int) (int, []int, bool) {
	s.calls++
	if s.calls >= s.budget {
		return 0, nil, false
	}
	if pi == len(s.pat) || ti == len(s.folded) {
		return 0, nil, false
	}

	var (
		work      = s.slab(2 * depth)
		best      = s.slab(2*depth + 1)
		bestScore int
		haveBest  bool
		seeded    bool
	)

	for pi < len(s.pat) && ti < len(s.folded) {
		if s.pat[pi] == s.folded[ti] {
			recorded := len(work)
			if !seeded {
				recorded = len(src)
			}
			// Fail closed on slot exhaustion: a truncated offset list is
			// never reported as a match.
			if recorded >= s.slots {
				return 0, nil, false
			}
			if !seeded {
				work = append(work, src...)
				seeded = true
			}
			// Probe skipping this occurrence before accepting it.
			if score, offs, ok := s.run(pi, ti+1, depth+1, work); ok {
				if !haveBest || score > bestScore {
					best = append(best[:0], offs...)
					bestScore = score
					haveBest = true
				}
			}
			work = append(work, ti)
			pi++
		}
		ti++
	}

	if pi == len(s.pat) {
		score := s.scoreMatch(work)
		// A recursive placement replaces the direct one only when strictly
		// better.
		if haveBest && bestScore > score {
			return bestScore, best, true
		}
		return score, work, true
	}
	if haveBest {
		return bestScore, best, true
	}
	return 0, nil, false
}

// scoreMatch computes the final score for a completed match. offsets holds
// one strictly increasing rune index per pattern rune.
func (s *btSearch) scoreMatch(offsets []int) int {
	score := s.w.Base

	penalty := s.w.LeadingPenalty * offsets[0]
	if penalty < s.w.MaxLeadingPenalty {
		penalty = s.w.MaxLeadingPenalty
	}
	score += penalty

	score += s.w.UnmatchedPenalty * (len(s.text) - len(offsets))

	for i, idx := range offsets {
		if i > 0 && offsets[i-1]+1 == idx {
			score += s.w.Sequential
		}
		if idx == 0 {
			score += s.w.FirstLetter
			continue
		}
		prev := s.text[idx-1]
		if prev == ' ' || prev == '_' {
			score += s.w.Separator
		}
		if unicode.IsLower(prev) && unicode.IsUpper(s.text[idx]) {
			score += s.w.Camel
		}
	}
	return score
}
