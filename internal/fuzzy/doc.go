// Package fuzzy implements approximate string matching for Fuzzypick.
//
// A Strategy decides whether a pattern matches a candidate string and
// scores the match. Matching is always a case-insensitive subsequence
// test: every pattern rune must appear in the candidate in order, though
// not necessarily adjacent. Strategies differ in how they place the
// pattern and how they score the placement.
//
// # Strategies
//
//   - Backtrack: recursive backtracking search. Every occurrence of a
//     pattern rune is tried both greedily and skipped, so the
//     highest-scoring placement wins. Records matched rune offsets for
//     highlighting. Bounded by a shared recursion budget and a fixed
//     offset-slot limit; both degrade to "no match" rather than erroring.
//   - SinglePass: one left-to-right walk, no backtracking, no offsets.
//     Cheaper, and good enough when only match/no-match plus a rough
//     ordering is needed.
//
// Scores are only comparable between results of the same strategy.
//
// # Scoring
//
// Backtrack starts from a base score and applies positional bonuses
// (contiguous runs, separator and camel-case boundaries, first letter)
// and penalties (leading gap, unmatched runes). SinglePass rewards word
// boundaries and run continuations and penalizes skips. Both weight sets
// are configurable; see Weights and SinglePassWeights.
//
// # Usage
//
//	strat := fuzzy.NewBacktrack(fuzzy.DefaultBacktrackOptions())
//	res, ok := strat.Match("lvl", "Level 999999")
//	if ok {
//	    fmt.Println(res.Score, res.Offsets)
//	}
//
// Wrap any strategy with Folded to match diacritic-insensitively, and use
// a Registry to select strategies by name, including Lua-scripted ones.
package fuzzy
