package pick

import (
	"math"
	"sort"

	"github.com/dshills/fuzzypick/internal/fuzzy"
)

// NoMinScore disables the minimum-score filter.
const NoMinScore = math.MinInt

// TieBreak selects how Best resolves candidates of equal quality.
type TieBreak int

const (
	// ScoreOnly keeps the first candidate with the maximum score.
	ScoreOnly TieBreak = iota

	// ScoreThenMatchCount additionally weighs matched-rune counts, the
	// secondary metric the recursive scorer historically reported. With
	// strategies that record one offset per pattern rune the counts are
	// always equal and this behaves like ScoreOnly.
	ScoreThenMatchCount
)

// String returns the policy name.
func (t TieBreak) String() string {
	switch t {
	case ScoreOnly:
		return "score"
	case ScoreThenMatchCount:
		return "score+matches"
	default:
		return "unknown"
	}
}

// Options configures a Selector.
type Options struct {
	// Strategy scores candidates. Required.
	Strategy fuzzy.Strategy

	// TieBreak picks the Best tie-break policy.
	TieBreak TieBreak

	// MinScore drops matches scoring below it. NoMinScore disables the
	// filter.
	MinScore int

	// Limit caps Rank results after sorting. Zero means unlimited.
	Limit int

	// Workers sets the worker count for RankContext. Values below two run
	// serially.
	Workers int

	// CacheSize enables an LRU cache of Rank results when positive. The
	// cache assumes a fixed source; call ClearCache when candidates change.
	CacheSize int
}

// DefaultOptions returns options using the backtracking strategy with
// score-only tie-breaking and no filtering.
func DefaultOptions() Options {
	return Options{
		Strategy: fuzzy.NewBacktrack(fuzzy.DefaultBacktrackOptions()),
		TieBreak: ScoreOnly,
		MinScore: NoMinScore,
	}
}

// Ranked is one Rank entry.
type Ranked struct {
	// Index is the candidate's position in the source.
	Index int

	// Score is the strategy's score for this candidate.
	Score int

	// Offsets holds matched rune positions when the strategy records them.
	Offsets []int
}

// Selector runs a matching strategy across a candidate source.
type Selector struct {
	strategy fuzzy.Strategy
	tieBreak TieBreak
	minScore int
	limit    int
	workers  int
	cache    *cache
}

// New creates a Selector. A nil strategy is a wiring error and panics.
func New(opts Options) *Selector {
	if opts.Strategy == nil {
		panic("pick: nil strategy")
	}
	s := &Selector{
		strategy: opts.Strategy,
		tieBreak: opts.TieBreak,
		minScore: opts.MinScore,
		limit:    opts.Limit,
		workers:  opts.Workers,
	}
	if opts.CacheSize > 0 {
		s.cache = newCache(opts.CacheSize)
	}
	return s
}

// Best returns the index of the best-matching candidate, or -1 when the
// pattern is empty, the source is empty, or nothing matches. Ties resolve
// per the configured TieBreak policy; with ScoreOnly the first occurrence
// of the maximum score wins.
func (s *Selector) Best(pattern string, src Source) int {
	if pattern == "" {
		return -1
	}
	patLen := len([]rune(pattern))

	best := -1
	var bestScore, bestCount int
	for i := 0; i < src.Len(); i++ {
		res, ok := s.strategy.Match(pattern, src.Text(i))
		if !ok || res.Score < s.minScore {
			continue
		}
		count := len(res.Offsets)
		if count == 0 {
			count = patLen
		}
		if best < 0 {
			best, bestScore, bestCount = i, res.Score, count
			continue
		}
		switch s.tieBreak {
		case ScoreThenMatchCount:
			if (res.Score > bestScore && bestCount >= count) ||
				(res.Score == bestScore && count > bestCount) {
				best, bestScore, bestCount = i, res.Score, count
			}
		default:
			if res.Score > bestScore {
				best, bestScore, bestCount = i, res.Score, count
			}
		}
	}
	return best
}

// Rank returns every matching candidate ordered by descending score.
// Candidates with equal scores keep their source order. An empty pattern
// matches nothing.
func (s *Selector) Rank(pattern string, src Source) []Ranked {
	if pattern == "" || src.Len() == 0 {
		return nil
	}
	if s.cache != nil {
		if hit, ok := s.cache.get(pattern); ok {
			return hit
		}
	}

	results := s.rankRange(pattern, src, 0, src.Len())
	sortRanked(results)
	results = s.applyLimit(results)

	if s.cache != nil {
		s.cache.put(pattern, results)
	}
	return results
}

// rankRange scans [lo, hi) in index order.
func (s *Selector) rankRange(pattern string, src Source, lo, hi int) []Ranked {
	out := make([]Ranked, 0, hi-lo)
	for i := lo; i < hi; i++ {
		res, ok := s.strategy.Match(pattern, src.Text(i))
		if !ok || res.Score < s.minScore {
			continue
		}
		out = append(out, Ranked{Index: i, Score: res.Score, Offsets: res.Offsets})
	}
	return out
}

// sortRanked orders by descending score. The sort is stable so equal
// scores keep their index order, which keeps rankings reproducible.
func sortRanked(rs []Ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Score > rs[j].Score
	})
}

// applyLimit returns at most limit results.
func (s *Selector) applyLimit(rs []Ranked) []Ranked {
	if s.limit <= 0 || s.limit >= len(rs) {
		return rs
	}
	return rs[:s.limit]
}

// ClearCache drops all cached Rank results.
func (s *Selector) ClearCache() {
	if s.cache != nil {
		s.cache.clear()
	}
}
