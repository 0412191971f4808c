// Package watcher reports settled changes to the graph file that is open
// in the editor, so a file edited by another program (or replaced by a
// sync tool) can be reloaded.
//
// The containing directory is watched with fsnotify, which survives the
// temp-file-and-rename pattern used by atomic saves. On network and FUSE
// filesystems, or when GS_FORCE_POLL is set, the file is polled instead.
// Bursts of events are debounced, the file is read once it settles, and
// contents identical to the last delivery or accepted by the ignore
// predicate are dropped.
package watcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrAlreadyStarted = errors.New("watcher: already started")
	ErrPermission     = errors.New("watcher: permission denied")
)

// Event is one settled change of the watched file.
type Event struct {
	Path string
	// Data is the file content after the change. It is nil when Removed.
	Data    []byte
	Removed bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithForcePoll disables fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithIgnore drops changes whose content satisfies fn. The editor passes
// a predicate that recognises its own last save.
func WithIgnore(fn func(data []byte) bool) Option {
	return func(w *Watcher) { w.ignore = fn }
}

// WithErrorHandler receives watch errors that do not stop the watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher watches one file.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	ignore       func([]byte) bool
	onError      func(error)

	mu        sync.Mutex
	started   bool
	polling   bool
	fsType    FilesystemType
	cancel    context.CancelFunc
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	last      []byte
	lastMod   time.Time
	lastSize  int64
	existed   bool

	events chan Event
}

// New returns an unstarted watcher for path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onError:      func(error) {},
		fsType:       FSTypeUnknown,
		events:       make(chan Event, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string { return w.path }

// Events delivers settled changes. Only the newest undelivered event is
// kept.
func (w *Watcher) Events() <-chan Event { return w.events }

// Polling reports whether the watcher fell back to polling.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// FilesystemType returns the classification made by Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsType
}

// Started reports whether the watcher is running.
func (w *Watcher) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Start begins watching until ctx is done or Stop is called. The current
// file content is taken as the baseline and not reported.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	data, err := os.ReadFile(w.path)
	switch {
	case err == nil:
		w.last = data
		w.existed = true
		if info, err := os.Stat(w.path); err == nil {
			w.lastMod, w.lastSize = info.ModTime(), info.Size()
		}
	case os.IsPermission(err):
		return ErrPermission
	}

	w.fsType = DetectFilesystemType(w.path)
	w.polling = w.forcePoll || envBool("GS_FORCE_POLL") || w.fsType.IsRemote()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if !w.polling {
		if fsw, err := w.openNotify(); err == nil {
			w.fsw = fsw
			go w.runNotify(ctx, fsw)
		} else {
			debug.Log("watcher: fsnotify unavailable (%v), polling", err)
			w.polling = true
		}
	}
	if w.polling {
		go w.runPoll(ctx)
	}

	w.started = true
	debug.Log("watcher: watching %s (fs=%s polling=%v)", w.path, w.fsType, w.polling)
	return nil
}

func (w *Watcher) openNotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// the directory, not the file: atomic saves replace the inode
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

// Stop ends watching. Pending debounced changes are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// SetBaseline records data as already known, so a change to exactly this
// content is not reported. Call it after saving the file yourself.
func (w *Watcher) SetBaseline(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = bytes.Clone(data)
}

func (w *Watcher) runNotify(ctx context.Context, fsw *fsnotify.Watcher) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.debouncer.Trigger(w.settle)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			w.mu.Lock()
			var changed bool
			switch {
			case err == nil:
				changed = !w.existed || info.ModTime() != w.lastMod || info.Size() != w.lastSize
				w.lastMod, w.lastSize = info.ModTime(), info.Size()
			case os.IsNotExist(err):
				changed = w.existed
			default:
				w.mu.Unlock()
				w.onError(err)
				continue
			}
			w.mu.Unlock()
			if changed {
				w.debouncer.Trigger(w.settle)
			}
		}
	}
}

// settle runs once the file has been quiet for the debounce period.
func (w *Watcher) settle() {
	data, err := os.ReadFile(w.path)

	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	var ev Event
	switch {
	case err == nil:
		w.existed = true
		if bytes.Equal(data, w.last) {
			w.mu.Unlock()
			return
		}
		w.last = data
		ev = Event{Path: w.path, Data: data}
	case os.IsNotExist(err):
		if !w.existed {
			w.mu.Unlock()
			return
		}
		w.existed = false
		w.last = nil
		ev = Event{Path: w.path, Removed: true}
	default:
		w.mu.Unlock()
		w.onError(err)
		return
	}
	ignore := w.ignore
	w.mu.Unlock()

	if !ev.Removed && ignore != nil && ignore(ev.Data) {
		debug.Log("watcher: ignoring own write to %s", w.path)
		return
	}
	w.deliver(ev)
}

// deliver replaces any undelivered event with ev.
func (w *Watcher) deliver(ev Event) {
	for {
		select {
		case w.events <- ev:
			return
		default:
		}
		select {
		case <-w.events:
		default:
		}
	}
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
