package fuzzy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownStrategy is returned when no strategy is registered under a
	// requested name.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrDuplicateStrategy is returned when a name is already taken.
	ErrDuplicateStrategy = errors.New("strategy already registered")
)

// Registry maps names to strategies. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry returns a registry pre-seeded with the built-in strategies
// under the names "backtrack" and "singlepass".
func NewRegistry() *Registry {
	return &Registry{
		strategies: map[string]Strategy{
			"backtrack":  NewBacktrack(DefaultBacktrackOptions()),
			"singlepass": NewSinglePass(DefaultSinglePassWeights()),
		},
	}
}

// Register adds a strategy under name.
func (r *Registry) Register(name string, s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStrategy, name)
	}
	r.strategies[name] = s
	return nil
}

// Replace adds or overwrites the strategy under name. Used when reloading
// scripted strategies.
func (r *Registry) Replace(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
