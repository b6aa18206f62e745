package script

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/fuzzypick/internal/fuzzy"
)

// Strategy is a fuzzy matching strategy implemented by a Lua script.
//
// gopher-lua's LState is not goroutine-safe, so all calls are serialized
// through a mutex. Distinct Strategy values never share a state.
type Strategy struct {
	id      string
	name    string
	timeout time.Duration
	onError func(name string, err error)

	mu     sync.Mutex
	state  *lua.LState
	closed bool
}

// Name returns the name the strategy was loaded under.
func (s *Strategy) Name() string { return s.name }

// ID returns a unique identifier for this loaded instance. Reloading a
// script produces a new ID under the same name.
func (s *Strategy) ID() string { return s.id }

// Match calls the script's match function with pattern and candidate.
//
// The script reports no match by returning nil. Otherwise it returns a
// numeric score and, optionally, a table of ascending rune offsets into the
// candidate. A script error, a timeout, or a malformed return is reported
// through the engine's error handler and counts as no match.
func (s *Strategy) Match(pattern, candidate string) (fuzzy.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fuzzy.Result{}, false
	}

	var ctx context.Context
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.state.SetContext(ctx)
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = s.state.CallByParam(lua.P{
			Fn:      s.state.GetGlobal(matchFunction),
			NRet:    2,
			Protect: true,
		}, lua.LString(pattern), lua.LString(candidate))
	}()
	if callErr != nil {
		s.state.SetTop(0)
		if ctx != nil && ctx.Err() != nil {
			callErr = fmt.Errorf("%w: %v", ErrCallTimeout, callErr)
		}
		s.fail(callErr)
		return fuzzy.Result{}, false
	}

	scoreVal := s.state.Get(-2)
	offsVal := s.state.Get(-1)
	s.state.Pop(2)

	if scoreVal == lua.LNil {
		return fuzzy.Result{}, false
	}
	num, ok := scoreVal.(lua.LNumber)
	if !ok {
		s.fail(fmt.Errorf("match returned %s score, want number", scoreVal.Type()))
		return fuzzy.Result{}, false
	}
	res := fuzzy.Result{Score: int(num)}

	if offsVal != lua.LNil {
		tbl, ok := offsVal.(*lua.LTable)
		if !ok {
			s.fail(fmt.Errorf("match returned %s offsets, want table", offsVal.Type()))
			return fuzzy.Result{}, false
		}
		offsets, err := offsetsFromTable(tbl, utf8.RuneCountInString(candidate))
		if err != nil {
			s.fail(fmt.Errorf("match offsets: %w", err))
			return fuzzy.Result{}, false
		}
		res.Offsets = offsets
	}
	return res, true
}

// Close releases the interpreter state. A closed strategy reports no
// matches.
func (s *Strategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.state.Close()
	s.closed = true
	return nil
}

func (s *Strategy) fail(err error) {
	if s.onError != nil {
		s.onError(s.name, err)
	}
}

// offsetsFromTable converts a Lua array of offsets, requiring strictly
// ascending values within [0, max).
func offsetsFromTable(tbl *lua.LTable, max int) ([]int, error) {
	n := tbl.Len()
	if n == 0 {
		return nil, nil
	}
	offsets := make([]int, 0, n)
	prev := -1
	for i := 1; i <= n; i++ {
		v := tbl.RawGetInt(i)
		num, ok := v.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("entry %d is %s, want number", i, v.Type())
		}
		off := int(num)
		if off <= prev {
			return nil, fmt.Errorf("entry %d is %d, want ascending offsets", i, off)
		}
		if off >= max {
			return nil, fmt.Errorf("entry %d is %d, beyond candidate length %d", i, off, max)
		}
		offsets = append(offsets, off)
		prev = off
	}
	return offsets, nil
}
