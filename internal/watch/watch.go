// Package watch delivers debounced file change notifications, used for
// live reload of configuration files and strategy scripts.
//
// Raw notifications arrive in bursts: one editor save can produce several
// create, write, and rename events within milliseconds. The watcher
// coalesces events per path by combining their operations, waits for the
// burst to go quiet, and then delivers one event per changed path.
package watch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when operating on a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// DefaultDebounce is the quiet period before coalesced events are
// delivered.
const DefaultDebounce = 200 * time.Millisecond

// Op represents the type of file system operation. Coalesced events carry
// the union of the operations observed during the debounce window.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// String returns a human-readable representation of the operation.
// Combined operations are joined with "|".
func (op Op) String() string {
	if op == 0 {
		return "NONE"
	}
	parts := make([]string, 0, 4)
	if op.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	return strings.Join(parts, "|")
}

// Event represents a coalesced file system change.
type Event struct {
	// Path is the path of the affected file or directory.
	Path string

	// Op is the union of the operations observed for Path.
	Op Op

	// Timestamp is when the last raw event for Path arrived.
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before events are delivered.
// Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithBufferSize sets the event and error channel capacity.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.buffer = n
		}
	}
}

// Watcher monitors files and directories and delivers debounced events.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	buffer   int
	events   chan Event
	errs     chan error
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a watcher. Paths are added with Watch.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		debounce: DefaultDebounce,
		buffer:   16,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.events = make(chan Event, w.buffer)
	w.errs = make(chan error, w.buffer)

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Watch starts watching a file or directory. Watching a directory reports
// changes to its immediate children.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	return w.fs.Add(path)
}

// Unwatch stops watching a path.
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	return w.fs.Remove(path)
}

// Events returns the channel of coalesced events. The channel is closed
// when the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors. The channel is closed when
// the watcher is closed.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher and closes both channels. Pending coalesced
// events that have not reached their quiet period are discarded. Close is
// idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()

	// The loop is the only sender, so the channels can be closed once it
	// has exited.
	w.wg.Wait()
	close(w.events)
	close(w.errs)
	return err
}

// loop owns the pending map and the debounce timer. All sends on the event
// and error channels happen here.
func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]Event)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerActive := false

	for {
		select {
		case <-w.done:
			return

		case fsEvent, ok := <-w.fs.Events:
			if !ok {
				return
			}
			op := convertOp(fsEvent.Op)
			if op == 0 {
				continue
			}
			ev, exists := pending[fsEvent.Name]
			if !exists {
				ev = Event{Path: fsEvent.Name}
			}
			ev.Op |= op
			ev.Timestamp = time.Now()
			pending[fsEvent.Name] = ev

			// Every raw event restarts the quiet period.
			if timerActive && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			timerActive = true

		case <-timer.C:
			timerActive = false
			w.flush(pending)
			pending = make(map[string]Event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// flush delivers pending events in path order.
func (w *Watcher) flush(pending map[string]Event) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		select {
		case w.events <- pending[path]:
		default:
			w.sendError(fmt.Errorf("event channel full, dropping %s", path))
		}
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// convertOp maps fsnotify operations. Chmod is dropped: permission changes
// do not change file content, so they never warrant a reload.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
