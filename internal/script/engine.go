package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/fuzzypick/internal/fuzzy"
)

// matchFunction is the global a script must define.
const matchFunction = "match"

// DefaultCallTimeout bounds a single script call. Normal scorers return in
// microseconds; the timeout only guards runaway scripts.
const DefaultCallTimeout = time.Second

// Errors for script engine operations.
var (
	// ErrEngineClosed is returned when loading into a closed engine.
	ErrEngineClosed = errors.New("script engine is closed")

	// ErrNoMatchFunction is returned when a script defines no match function.
	ErrNoMatchFunction = errors.New(`script does not define a "match" function`)

	// ErrCallTimeout wraps call errors caused by the per-call timeout.
	// It reaches callers through the engine's error handler.
	ErrCallTimeout = errors.New("script call timed out")
)

// Option configures an Engine.
type Option func(*Engine)

// WithCallTimeout sets the per-call timeout for script loading and matching.
// Zero or negative disables the timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithErrorHandler sets a handler for errors raised by scripts at match
// time. Load errors are returned directly and do not reach the handler.
func WithErrorHandler(fn func(name string, err error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// Engine loads Lua scripts as matching strategies. Each loaded strategy
// owns its own sandboxed interpreter state, so distinct strategies may be
// called concurrently with each other.
type Engine struct {
	mu         sync.Mutex
	timeout    time.Duration
	onError    func(name string, err error)
	strategies map[string]*Strategy
	closed     bool
}

// NewEngine creates a script engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout:    DefaultCallTimeout,
		strategies: make(map[string]*Strategy),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadString compiles source and registers it under name. The script must
// define a global match function. Loading a name again replaces the previous
// strategy and closes it; a selector still holding the old strategy sees no
// matches from it afterwards.
func (e *Engine) LoadString(name, source string) (*Strategy, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}

	L := newSandboxedState()
	if err := doString(L, source, e.timeout); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script %s: %w", name, err)
	}
	if L.GetGlobal(matchFunction).Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoMatchFunction, name)
	}

	strat := &Strategy{
		id:      uuid.New().String(),
		name:    name,
		state:   L,
		timeout: e.timeout,
		onError: e.onError,
	}

	old := e.strategies[name]
	e.strategies[name] = strat
	if old != nil {
		old.Close()
	}
	return strat, nil
}

// LoadFile loads the script at path. The strategy name is the file name
// without its extension.
func (e *Engine) LoadFile(path string) (*Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return e.LoadString(strategyName(path), string(data))
}

// LoadDir loads every .lua file in dir and registers the strategies in reg,
// replacing any previous registration under the same name. A missing
// directory is not an error. Returns the names loaded, in directory order.
func (e *Engine) LoadDir(dir string, reg *fuzzy.Registry) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading scripts dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".lua") {
			continue
		}
		strat, err := e.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return names, err
		}
		if reg != nil {
			reg.Replace(strat.Name(), strat)
		}
		names = append(names, strat.Name())
	}
	return names, nil
}

// Names returns the names of all loaded strategies, sorted.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every loaded strategy. After Close, loads return
// ErrEngineClosed and previously loaded strategies report no matches.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for _, s := range e.strategies {
		s.Close()
	}
	e.strategies = nil
	return nil
}

// strategyName derives a strategy name from a script path.
func strategyName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newSandboxedState creates an interpreter with only safe libraries. The
// io, os, debug, and package libraries stay closed, and the loading
// primitives are removed so scripts cannot pull in code from disk.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	// Results go to stdout, so print is redirected to stderr.
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(os.Stderr, strings.Join(parts, "\t"))
		return 0
	}))

	return L
}

// doString executes source with panic recovery and an optional deadline.
func doString(L *lua.LState, source string, timeout time.Duration) (err error) {
	if timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		L.SetContext(ctx)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return L.DoString(source)
}
