package pick

import (
	"container/heap"
	"context"
	"sort"
	"sync"
)

// RankContext is Rank with cooperative cancellation and, when
// Options.Workers is at least two, parallel scanning. For the same inputs
// it produces exactly the serial Rank output, including equal-score order.
// Results are not cached.
func (s *Selector) RankContext(ctx context.Context, pattern string, src Source) ([]Ranked, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pattern == "" || src.Len() == 0 {
		return nil, nil
	}

	n := src.Len()
	workers := s.workers
	if workers > n {
		workers = n
	}
	if workers < 2 {
		results, err := s.rankRangeCtx(ctx, pattern, src, 0, n)
		if err != nil {
			return nil, err
		}
		sortRanked(results)
		return s.applyLimit(results), nil
	}

	// Contiguous chunks keep per-chunk output in ascending index order, so
	// concatenating chunks in order preserves global index order and the
	// stable sort below reproduces the serial ranking.
	chunkSize := (n + workers - 1) / workers
	chunks := make([][]Ranked, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunkSize
		if lo >= n {
			break
		}
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			chunks[w] = s.rankChunk(ctx, pattern, src, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	results := make([]Ranked, 0, total)
	for _, c := range chunks {
		results = append(results, c...)
	}
	sortRanked(results)
	return s.applyLimit(results), nil
}

// rankRangeCtx is rankRange with a cancellation check per candidate.
func (s *Selector) rankRangeCtx(ctx context.Context, pattern string, src Source, lo, hi int) ([]Ranked, error) {
	out := make([]Ranked, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, ok := s.strategy.Match(pattern, src.Text(i))
		if !ok || res.Score < s.minScore {
			continue
		}
		out = append(out, Ranked{Index: i, Score: res.Score, Offsets: res.Offsets})
	}
	return out, nil
}

// rankChunk scans [lo, hi), keeping only the limit best entries when a
// limit is set. Survivors are returned in ascending index order.
func (s *Selector) rankChunk(ctx context.Context, pattern string, src Source, lo, hi int) []Ranked {
	if s.limit <= 0 {
		out, err := s.rankRangeCtx(ctx, pattern, src, lo, hi)
		if err != nil {
			return nil
		}
		return out
	}

	// Keep a per-chunk top-K. The heap orders worst-first with equal
	// scores evicting the highest index, so the survivors are exactly the
	// entries the serial stable sort would keep.
	h := &rankHeap{}
	for i := lo; i < hi; i++ {
		if ctx.Err() != nil {
			return nil
		}
		res, ok := s.strategy.Match(pattern, src.Text(i))
		if !ok || res.Score < s.minScore {
			continue
		}
		heap.Push(h, Ranked{Index: i, Score: res.Score, Offsets: res.Offsets})
		if h.Len() > s.limit {
			heap.Pop(h)
		}
	}

	out := make([]Ranked, h.Len())
	copy(out, *h)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// rankHeap is a min-heap over (score, -index): the root is the weakest
// entry, and among equal scores the highest index goes first.
type rankHeap []Ranked

func (h rankHeap) Len() int { return len(h) }

func (h rankHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}

func (h rankHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankHeap) Push(x any) {
	*h = append(*h, x.(Ranked))
}

func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
