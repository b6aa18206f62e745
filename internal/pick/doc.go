// Package pick selects candidates from a collection using a fuzzy
// matching strategy.
//
// A Selector wraps one fuzzy.Strategy and offers two selection modes:
//
//   - Best: scan every candidate and return the index of the single best
//     match, -1 when nothing matches. Ties resolve by policy: ScoreOnly
//     keeps the first occurrence of the maximum score, ScoreThenMatchCount
//     also weighs the matched-rune count.
//   - Rank: collect every matching candidate and return (index, score)
//     entries sorted by descending score. The sort is stable, so
//     candidates with equal scores keep their source order.
//
// Candidates are reached through the Source interface, keeping the
// selectors agnostic to how the collection is stored. Strings and
// FuncSource adapt the common cases.
//
// An empty pattern selects nothing: Best returns -1 and Rank returns an
// empty result, regardless of the strategy's own empty-pattern behavior.
//
// RankContext adds cooperative cancellation and optional worker-parallel
// scanning that reproduces the serial ordering exactly. Options.CacheSize
// enables an LRU of Rank results for repeated patterns over a fixed
// candidate set.
package pick
