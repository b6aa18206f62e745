package config

import (
	"errors"
	"fmt"

	"github.com/dshills/fuzzypick/internal/fuzzy"
	"github.com/dshills/fuzzypick/internal/pick"
)

// Errors returned by configuration validation and resolution.
var (
	// ErrUnknownTieBreak indicates the tiebreak setting is not a known policy.
	ErrUnknownTieBreak = errors.New("unknown tie-break policy")

	// ErrInvalidBudget indicates the recursion budget is not positive.
	ErrInvalidBudget = errors.New("recursion budget must be at least 1")

	// ErrInvalidSlots indicates the match slot count is not positive.
	ErrInvalidSlots = errors.New("max match slots must be at least 1")

	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("workers must not be negative")
)

// Tie-break policy names accepted in configuration files.
const (
	TieBreakScore        = "score"
	TieBreakScoreMatches = "score+matches"
)

// Config is the top-level configuration for fuzzypick.
//
// Zero values are replaced by Default() before a file is parsed over the
// struct, so absent keys keep their defaults.
type Config struct {
	// Strategy selects the matching strategy. "backtrack" and "singlepass"
	// are built in; other names resolve through the strategy registry.
	Strategy string `toml:"strategy" yaml:"strategy"`

	// TieBreak selects how Best resolves equal scores. One of
	// TieBreakScore or TieBreakScoreMatches.
	TieBreak string `toml:"tiebreak" yaml:"tiebreak"`

	// FoldDiacritics strips diacritic marks from pattern and candidates
	// before matching, so "uber" matches "über".
	FoldDiacritics bool `toml:"fold_diacritics" yaml:"fold_diacritics"`

	// MinScore drops ranked results scoring below it. Nil keeps every
	// match regardless of score.
	MinScore *int `toml:"min_score" yaml:"min_score"`

	// Limit caps the number of ranked results. Zero or negative keeps all.
	Limit int `toml:"limit" yaml:"limit"`

	// Workers is the goroutine count for parallel ranking. Zero ranks
	// serially.
	Workers int `toml:"workers" yaml:"workers"`

	// CacheSize is the number of rankings retained by the selector cache.
	// Zero disables caching.
	CacheSize int `toml:"cache_size" yaml:"cache_size"`

	// ScriptsDir is a directory of Lua strategy scripts loaded at startup.
	ScriptsDir string `toml:"scripts_dir" yaml:"scripts_dir"`

	// Backtrack tunes the backtracking strategy.
	Backtrack BacktrackConfig `toml:"backtrack" yaml:"backtrack"`

	// SinglePass tunes the single-pass strategy.
	SinglePass SinglePassConfig `toml:"singlepass" yaml:"singlepass"`
}

// BacktrackConfig tunes the backtracking strategy.
type BacktrackConfig struct {
	// RecursionBudget caps the total number of search calls per match.
	RecursionBudget int `toml:"recursion_budget" yaml:"recursion_budget"`

	// MaxMatchSlots caps how many match positions are recorded.
	MaxMatchSlots int `toml:"max_match_slots" yaml:"max_match_slots"`

	// Weights are the scoring weights.
	Weights WeightsConfig `toml:"weights" yaml:"weights"`
}

// WeightsConfig mirrors fuzzy.Weights with configuration keys.
type WeightsConfig struct {
	Base              int `toml:"base" yaml:"base"`
	Sequential        int `toml:"sequential" yaml:"sequential"`
	Separator         int `toml:"separator" yaml:"separator"`
	Camel             int `toml:"camel" yaml:"camel"`
	FirstLetter       int `toml:"first_letter" yaml:"first_letter"`
	LeadingPenalty    int `toml:"leading_penalty" yaml:"leading_penalty"`
	MaxLeadingPenalty int `toml:"max_leading_penalty" yaml:"max_leading_penalty"`
	UnmatchedPenalty  int `toml:"unmatched_penalty" yaml:"unmatched_penalty"`
}

// SinglePassConfig mirrors fuzzy.SinglePassWeights with configuration keys.
type SinglePassConfig struct {
	BoundaryBonus      int `toml:"boundary_bonus" yaml:"boundary_bonus"`
	RunBonus           int `toml:"run_bonus" yaml:"run_bonus"`
	SkipPenalty        int `toml:"skip_penalty" yaml:"skip_penalty"`
	LeadingSkipPenalty int `toml:"leading_skip_penalty" yaml:"leading_skip_penalty"`
	ErrorFloor         int `toml:"error_floor" yaml:"error_floor"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	bt := fuzzy.DefaultBacktrackOptions()
	sp := fuzzy.DefaultSinglePassWeights()
	return Config{
		Strategy: "backtrack",
		TieBreak: TieBreakScore,
		Backtrack: BacktrackConfig{
			RecursionBudget: bt.RecursionBudget,
			MaxMatchSlots:   bt.MaxMatchSlots,
			Weights: WeightsConfig{
				Base:              bt.Weights.Base,
				Sequential:        bt.Weights.Sequential,
				Separator:         bt.Weights.Separator,
				Camel:             bt.Weights.Camel,
				FirstLetter:       bt.Weights.FirstLetter,
				LeadingPenalty:    bt.Weights.LeadingPenalty,
				MaxLeadingPenalty: bt.Weights.MaxLeadingPenalty,
				UnmatchedPenalty:  bt.Weights.UnmatchedPenalty,
			},
		},
		SinglePass: SinglePassConfig{
			BoundaryBonus:      sp.BoundaryBonus,
			RunBonus:           sp.RunBonus,
			SkipPenalty:        sp.SkipPenalty,
			LeadingSkipPenalty: sp.LeadingSkipPenalty,
			ErrorFloor:         sp.ErrorFloor,
		},
	}
}

// Validate checks the configuration for values no strategy or selector
// can work with. It does not resolve the strategy name; Build does that
// against a registry.
func (c Config) Validate() error {
	switch c.TieBreak {
	case TieBreakScore, TieBreakScoreMatches:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTieBreak, c.TieBreak)
	}
	if c.Backtrack.RecursionBudget < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBudget, c.Backtrack.RecursionBudget)
	}
	if c.Backtrack.MaxMatchSlots < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSlots, c.Backtrack.MaxMatchSlots)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	return nil
}

// Build resolves the configuration into selector options. The built-in
// strategy names construct fresh strategies from the tuning sections;
// any other name is looked up in reg. A nil reg resolves built-ins only.
func (c Config) Build(reg *fuzzy.Registry) (pick.Options, error) {
	opts := pick.DefaultOptions()

	var strategy fuzzy.Strategy
	switch c.Strategy {
	case "", "backtrack":
		strategy = fuzzy.NewBacktrack(fuzzy.BacktrackOptions{
			Weights:         c.Backtrack.weights(),
			RecursionBudget: c.Backtrack.RecursionBudget,
			MaxMatchSlots:   c.Backtrack.MaxMatchSlots,
		})
	case "singlepass":
		strategy = fuzzy.NewSinglePass(c.SinglePass.weights())
	default:
		if reg == nil {
			return pick.Options{}, fmt.Errorf("%w: %q", fuzzy.ErrUnknownStrategy, c.Strategy)
		}
		var err error
		strategy, err = reg.Get(c.Strategy)
		if err != nil {
			return pick.Options{}, err
		}
	}
	if c.FoldDiacritics {
		strategy = fuzzy.Folded(strategy)
	}
	opts.Strategy = strategy

	switch c.TieBreak {
	case "", TieBreakScore:
		opts.TieBreak = pick.ScoreOnly
	case TieBreakScoreMatches:
		opts.TieBreak = pick.ScoreThenMatchCount
	default:
		return pick.Options{}, fmt.Errorf("%w: %q", ErrUnknownTieBreak, c.TieBreak)
	}

	if c.MinScore != nil {
		opts.MinScore = *c.MinScore
	}
	opts.Limit = c.Limit
	opts.Workers = c.Workers
	opts.CacheSize = c.CacheSize
	return opts, nil
}

func (b BacktrackConfig) weights() fuzzy.Weights {
	return fuzzy.Weights{
		Base:              b.Weights.Base,
		Sequential:        b.Weights.Sequential,
		Separator:         b.Weights.Separator,
		Camel:             b.Weights.Camel,
		FirstLetter:       b.Weights.FirstLetter,
		LeadingPenalty:    b.Weights.LeadingPenalty,
		MaxLeadingPenalty: b.Weights.MaxLeadingPenalty,
		UnmatchedPenalty:  b.Weights.UnmatchedPenalty,
	}
}

func (s SinglePassConfig) weights() fuzzy.SinglePassWeights {
	return fuzzy.SinglePassWeights{
		BoundaryBonus:      s.BoundaryBonus,
		RunBonus:           s.RunBonus,
		SkipPenalty:        s.SkipPenalty,
		LeadingSkipPenalty: s.LeadingSkipPenalty,
		ErrorFloor:         s.ErrorFloor,
	}
}
