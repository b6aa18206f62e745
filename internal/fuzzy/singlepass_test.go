package fuzzy

import (
	"strings"
	"testing"
)

func TestSinglePassSubsequence(t *testing.T) {
	s := NewSinglePass(DefaultSinglePassWeights())

	tests := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"lvl", "Level 999999", true},
		{"lvl", "instruction", false},
		{"lvl", "Chemistry", false},
		{"bury", "bury the dark", true},
		{"ABC", "abc", true},
		{"abc", "ab", false},
		{"a", "", false},
		{"wör", "HÉLLO WÖRLD", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.candidate, func(t *testing.T) {
			_, got := s.Match(tt.pattern, tt.candidate)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.candidate, got, tt.want)
			}
		})
	}
}

// An empty pattern matches only an empty candidate, unlike Backtrack where
// it never matches. The selectors short-circuit before either applies.
func TestSinglePassEmptyPattern(t *testing.T) {
	s := NewSinglePass(DefaultSinglePassWeights())

	res, ok := s.Match("", "")
	if !ok {
		t.Error("empty pattern should match an empty candidate")
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	if _, ok := s.Match("", "x"); ok {
		t.Error("empty pattern should not match a non-empty candidate")
	}
}

func TestSinglePassScores(t *testing.T) {
	s := NewSinglePass(DefaultSinglePassWeights())

	tests := []struct {
		name      string
		pattern   string
		candidate string
		want      int
	}{
		// +10 start boundary, then +5 per run continuation
		{"contiguous", "bury", "bury", 25},
		// trailing runes are never scanned, so the score is unchanged
		{"trailing ignored", "bury", "bury the dark", 25},
		// boundary starts, mid-word continuations score nothing fresh
		{"scattered", "lvl", "Level 999999", 8},
		// two skips then a match after a space
		{"space boundary", "b", "a b", 8},
		// word-leading uppercase counts as a boundary
		{"camel boundary", "B", "fooBar", 7},
		// skipping word-leading runes costs -3 each on top of the skip
		{"leading skip", "x", "AbcX", 4},
		// an uppercase run continues, it does not restart a word
		{"uppercase run", "AB", "AB", 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := s.Match(tt.pattern, tt.candidate)
			if !ok {
				t.Fatalf("Match(%q, %q) did not match", tt.pattern, tt.candidate)
			}
			if res.Score != tt.want {
				t.Errorf("Match(%q, %q) score = %d, want %d", tt.pattern, tt.candidate, res.Score, tt.want)
			}
		})
	}
}

// The accumulated leading-skip penalty is floored at ErrorFloor.
func TestSinglePassErrorFloor(t *testing.T) {
	s := NewSinglePass(DefaultSinglePassWeights())

	// Four word-leading skips accumulate -12, floored at -9; eight plain
	// skips cost -8; the final match adds nothing fresh mid-word.
	res, ok := s.Match("z", "AaBbCcDdz")
	if !ok {
		t.Fatal("expected match")
	}
	if res.Score != -17 {
		t.Errorf("score = %d, want -17", res.Score)
	}
}

func TestSinglePassNoOffsets(t *testing.T) {
	s := NewSinglePass(DefaultSinglePassWeights())

	res, ok := s.Match("bury", "bury the dark")
	if !ok {
		t.Fatal("expected match")
	}
	if res.Offsets != nil {
		t.Errorf("offsets = %v, want nil", res.Offsets)
	}
}

func BenchmarkSinglePassMatch(b *testing.B) {
	s := NewSinglePass(DefaultSinglePassWeights())

	benches := []struct {
		name      string
		pattern   string
		candidate string
	}{
		{"short", "lvl", "Level 999999"},
		{"long", "handler", "internal/input/handler/keymap_handler_test.go"},
		{"miss", "zzzz", strings.Repeat("abc ", 32)},
	}

	for _, bm := range benches {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				s.Match(bm.pattern, bm.candidate)
			}
		})
	}
}
