package fuzzy

import (
	"strings"
	"testing"
	"unicode"
)

func TestBacktrackSubsequence(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	tests := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"lvl", "Level 999999", true},
		{"lvl", "instruction", false},
		{"lvl", "Chemistry", false},
		{"abc", "abc", true},
		{"abc", "AxByCz", true},
		{"abc", "acb", false},
		{"ABC", "abc", true},
		{"abc", "ABC", true},
		{"aaa", "aa", false},
		{"", "anything", false},
		{"", "", false},
		{"a", "", false},
		{"hw", "héllo wörld", true},
		{"wörld", "HÉLLO WÖRLD", true},
		{"本語", "日本語", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.candidate, func(t *testing.T) {
			_, got := b.Match(tt.pattern, tt.candidate)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestBacktrackOffsets(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	tests := []struct {
		pattern   string
		candidate string
		want      []int
	}{
		{"lvl", "Level 999999", []int{0, 2, 4}},
		{"bury", "bury the dark", []int{0, 1, 2, 3}},
		{"本語", "日本語", []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			res, ok := b.Match(tt.pattern, tt.candidate)
			if !ok {
				t.Fatalf("Match(%q, %q) did not match", tt.pattern, tt.candidate)
			}
			if len(res.Offsets) != len(tt.want) {
				t.Fatalf("got offsets %v, want %v", res.Offsets, tt.want)
			}
			for i := range tt.want {
				if res.Offsets[i] != tt.want[i] {
					t.Errorf("got offsets %v, want %v", res.Offsets, tt.want)
					break
				}
			}
		})
	}
}

// Offsets must be one per pattern rune, strictly increasing, and point at
// runes equal to the pattern under case folding.
func TestBacktrackOffsetValidity(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	pairs := []struct {
		pattern   string
		candidate string
	}{
		{"lvl", "Level 999999"},
		{"fc", "FileController.go"},
		{"cfg", "load_config_file"},
		{"wör", "HÉLLO WÖRLD"},
		{"abc", "aabbcc"},
	}

	for _, tt := range pairs {
		res, ok := b.Match(tt.pattern, tt.candidate)
		if !ok {
			t.Fatalf("Match(%q, %q) did not match", tt.pattern, tt.candidate)
		}
		pat := []rune(tt.pattern)
		text := []rune(tt.candidate)
		if len(res.Offsets) != len(pat) {
			t.Fatalf("pattern %q: got %d offsets, want %d", tt.pattern, len(res.Offsets), len(pat))
		}
		prev := -1
		for i, off := range res.Offsets {
			if off <= prev {
				t.Errorf("pattern %q: offsets %v not strictly increasing", tt.pattern, res.Offsets)
			}
			if off < 0 || off >= len(text) {
				t.Fatalf("pattern %q: offset %d out of range", tt.pattern, off)
			}
			if unicode.ToLower(pat[i]) != unicode.ToLower(text[off]) {
				t.Errorf("pattern %q: offset %d points at %q, want %q", tt.pattern, off, text[off], pat[i])
			}
			prev = off
		}
	}
}

func TestBacktrackScores(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	tests := []struct {
		name      string
		pattern   string
		candidate string
		want      int
	}{
		// base 100 - 9 unmatched + 15 first letter
		{"scattered", "lvl", "Level 999999", 106},
		// base 100 - 5 unmatched + 15 first + 30 separator
		{"separator", "fb", "foo_bar", 140},
		// base 100 - 4 unmatched + 15 first + 30 camel
		{"camel", "fb", "fooBar", 141},
		// leading penalty clamps at -15
		{"leading clamped", "x", "aaaaax", 80},
		// leading penalty under the clamp stays proportional
		{"leading partial", "x", "aax", 88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := b.Match(tt.pattern, tt.candidate)
			if !ok {
				t.Fatalf("Match(%q, %q) did not match", tt.pattern, tt.candidate)
			}
			if res.Score != tt.want {
				t.Errorf("Match(%q, %q) score = %d, want %d", tt.pattern, tt.candidate, res.Score, tt.want)
			}
		})
	}
}

// A candidate identical to the pattern scores the documented maximum:
// base 100 + first letter 15 + sequential 15 per following rune.
func TestBacktrackExactMatchScore(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	for _, s := range []string{"a", "ab", "test", "Level"} {
		want := 100 + 15 + 15*(len([]rune(s))-1)
		res, ok := b.Match(s, s)
		if !ok {
			t.Fatalf("Match(%q, %q) did not match", s, s)
		}
		if res.Score != want {
			t.Errorf("Match(%q, %q) score = %d, want %d", s, s, res.Score, want)
		}
	}
}

// The skip branch must win when a later placement scores higher than the
// greedy leftmost one.
func TestBacktrackPrefersBetterPlacement(t *testing.T) {
	b := NewBacktrack(DefaultBacktrackOptions())

	// Greedy picks a@0 + b@6 (110); a@5 + b@6 is contiguous after a
	// separator (125).
	res, ok := b.Match("ab", "a_xx_ab")
	if !ok {
		t.Fatal("expected match")
	}
	if res.Score != 125 {
		t.Errorf("score = %d, want 125", res.Score)
	}
	if len(res.Offsets) != 2 || res.Offsets[0] != 5 || res.Offsets[1] != 6 {
		t.Errorf("offsets = %v, want [5 6]", res.Offsets)
	}
}

func TestBacktrackRecursionBudget(t *testing.T) {
	// With the budget spent on the root frame alone, the skip branch is
	// pruned and the greedy placement stands.
	opts := DefaultBacktrackOptions()
	opts.RecursionBudget = 2
	pruned := NewBacktrack(opts)

	res, ok := pruned.Match("ab", "a_xx_ab")
	if !ok {
		t.Fatal("pruned match should still succeed via the greedy walk")
	}
	if res.Score != 110 {
		t.Errorf("pruned score = %d, want 110", res.Score)
	}
	if len(res.Offsets) != 2 || res.Offsets[0] != 0 || res.Offsets[1] != 6 {
		t.Errorf("pruned offsets = %v, want [0 6]", res.Offsets)
	}

	// The default budget explores the better placement.
	full := NewBacktrack(DefaultBacktrackOptions())
	res, ok = full.Match("ab", "a_xx_ab")
	if !ok {
		t.Fatal("expected match")
	}
	if res.Score != 125 {
		t.Errorf("full score = %d, want 125", res.Score)
	}
}

func TestBacktrackSlotOverflow(t *testing.T) {
	opts := DefaultBacktrackOptions()
	opts.MaxMatchSlots = 3
	b := NewBacktrack(opts)

	// Needs four slots: fails closed.
	if _, ok := b.Match("abcd", "abcd"); ok {
		t.Error("expected no match when the pattern exceeds the slot limit")
	}
	// Exactly at the limit still matches.
	res, ok := b.Match("abc", "abc")
	if !ok {
		t.Fatal("expected match at the slot limit")
	}
	if len(res.Offsets) != 3 {
		t.Errorf("got %d offsets, want 3", len(res.Offsets))
	}
}

func TestBacktrackZeroOptionFallback(t *testing.T) {
	b := NewBacktrack(BacktrackOptions{Weights: DefaultWeights()})
	if _, ok := b.Match("abc", "a b c"); !ok {
		t.Error("zero budget and slots should fall back to usable defaults")
	}
}

func BenchmarkBacktrackMatch(b *testing.B) {
	bt := NewBacktrack(DefaultBacktrackOptions())

	benches := []struct {
		name      string
		pattern   string
		candidate string
	}{
		{"short", "lvl", "Level 999999"},
		{"long", "handler", "internal/input/handler/keymap_handler_test.go"},
		{"pathological", "aaaa", strings.Repeat("a", 64)},
	}

	for _, bm := range benches {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				bt.Match(bm.pattern, bm.candidate)
			}
		})
	}
}
