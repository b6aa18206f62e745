package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestWatcher creates a watcher with a short debounce watching dir.
func newTestWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New(WithDebounce(30 * time.Millisecond))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { w.Close() })

	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	return w
}

// waitEvent waits for the next event for path, skipping events for other
// paths.
func waitEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed while waiting")
			}
			if event.Path == path {
				return event
			}
		case <-timeout:
			t.Fatalf("timeout waiting for event on %s", path)
		}
	}
}

func TestWatcherWriteEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("limit = 1\n"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	w := newTestWatcher(t, dir)

	if err := os.WriteFile(file, []byte("limit = 2\n"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	event := waitEvent(t, w, file)
	if !event.Op.Has(OpWrite) {
		t.Errorf("Op = %v, want it to include WRITE", event.Op)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestWatcherCoalesces(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "strategy.lua")

	w := newTestWatcher(t, dir)

	// A create followed by rapid writes lands within one debounce window.
	if err := os.WriteFile(file, []byte("function match(p, c) return 1 end"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte("function match(p, c) return 2 end"), 0644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
	}

	event := waitEvent(t, w, file)
	if !event.Op.Has(OpCreate) {
		t.Errorf("Op = %v, want it to include CREATE", event.Op)
	}
	if !event.Op.Has(OpWrite) {
		t.Errorf("Op = %v, want it to include WRITE", event.Op)
	}

	// The burst was coalesced, so the quiet channel stays quiet.
	select {
	case extra := <-w.Events():
		t.Errorf("unexpected second event: %+v", extra)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherSortedFlush(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	// Two files changed within one window are delivered in path order.
	fileB := filepath.Join(dir, "b.lua")
	fileA := filepath.Join(dir, "a.lua")
	if err := os.WriteFile(fileB, []byte("b"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := os.WriteFile(fileA, []byte("a"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	first := waitEvent(t, w, fileA)
	if first.Path != fileA {
		t.Errorf("first event path = %q, want %q", first.Path, fileA)
	}
	second := waitEvent(t, w, fileB)
	if second.Path != fileB {
		t.Errorf("second event path = %q, want %q", second.Path, fileB)
	}
}

func TestWatcherRemoveEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gone.toml")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	w := newTestWatcher(t, dir)

	if err := os.Remove(file); err != nil {
		t.Fatalf("Remove error = %v", err)
	}

	event := waitEvent(t, w, file)
	if !event.Op.Has(OpRemove) {
		t.Errorf("Op = %v, want it to include REMOVE", event.Op)
	}
}

func TestWatcherClose(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}

	if err := w.Watch(dir); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Watch after close = %v, want ErrWatcherClosed", err)
	}
	if err := w.Unwatch(dir); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Unwatch after close = %v, want ErrWatcherClosed", err)
	}

	// Both channels are closed.
	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
	if _, ok := <-w.Errors(); ok {
		t.Error("errors channel should be closed")
	}
}

func TestWatcherWatchMissingPath(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	if err := w.Watch("/nonexistent/path/that/does/not/exist"); err == nil {
		t.Error("expected an error watching a missing path")
	}
}

func TestOpHas(t *testing.T) {
	op := OpCreate | OpWrite
	if !op.Has(OpCreate) {
		t.Error("expected Has(OpCreate)")
	}
	if !op.Has(OpWrite) {
		t.Error("expected Has(OpWrite)")
	}
	if op.Has(OpRemove) {
		t.Error("did not expect Has(OpRemove)")
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{OpCreate | OpWrite, "CREATE|WRITE"},
		{Op(0), "NONE"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}
