// Package watch re-runs a callback when input documents change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOp is a bitmask of file operations.
type WatchOp uint8

const (
	OpCreate WatchOp = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Event reports a change to one watched file.
type Event struct {
	Path string
	Op   WatchOp
	Time time.Time
}

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher follows a fixed set of files. It watches their parent directories
// so that files replaced by rename keep being followed.
type Watcher struct {
	w        *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	evC      chan Event
	erC      chan error

	mu         sync.Mutex
	pending    map[string]*time.Timer
	pendingOps map[string]WatchOp
	closed     bool
}

// eventBuffer is the capacity of the Events channel.
const eventBuffer = 128

// New starts watching files. debounce <= 0 selects DefaultDebounce.
func New(files []string, debounce time.Duration) (*Watcher, error) {
	return newWatcher(files, debounce, eventBuffer)
}

func newWatcher(files []string, debounce time.Duration, buffer int) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files given")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &Watcher{
		w:          w,
		files:      make(map[string]bool),
		debounce:   debounce,
		evC:        make(chan Event, buffer),
		erC:        make(chan error, 1),
		pending:    make(map[string]*time.Timer),
		pendingOps: make(map[string]WatchOp),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go fw.loop()
	return fw, nil
}

func (fw *Watcher) loop() {
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !fw.files[abs] {
				continue
			}
			var op WatchOp
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if op != 0 {
				fw.schedule(abs, op)
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default:
			}
		}
	}
}

// schedule delivers one event per file once it has been quiet for the
// debounce interval. Ops seen during the interval are merged.
func (fw *Watcher) schedule(path string, op WatchOp) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.closed {
		return
	}

	if t, ok := fw.pending[path]; ok {
		t.Stop()
	}
	fw.pendingOps[path] |= op

	fw.pending[path] = time.AfterFunc(fw.debounce, func() { fw.fire(path) })
}

// fire hands the merged event for path to the consumer. If the event
// channel is full the event is pending again for another interval; it is
// never dropped while the watcher is open.
func (fw *Watcher) fire(path string) {
	fw.mu.Lock()
	op := fw.pendingOps[path]
	delete(fw.pendingOps, path)
	delete(fw.pending, path)
	closed := fw.closed
	fw.mu.Unlock()
	if closed {
		return
	}

	select {
	case fw.evC <- Event{Path: path, Op: op, Time: time.Now()}:
	default:
		fw.schedule(path, op)
	}
}

func (fw *Watcher) Events() <-chan Event { return fw.evC }
func (fw *Watcher) Errors() <-chan error { return fw.erC }

// Close stops watching. Pending events are dropped.
func (fw *Watcher) Close() error {
	fw.mu.Lock()
	fw.closed = true
	for _, t := range fw.pending {
		t.Stop()
	}
	fw.mu.Unlock()
	return fw.w.Close()
}

// Run calls onChange for every changed file until ctx is done. Removed files
// are skipped; the callback runs again when they reappear. Watcher errors go
// to onError when it is non-nil.
func (fw *Watcher) Run(ctx context.Context, onChange func(Event), onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-fw.evC:
			if ev.Op&(OpCreate|OpWrite) == 0 {
				continue
			}
			onChange(ev)
		case err := <-fw.erC:
			if onError != nil {
				onError(err)
			}
		}
	}
}
