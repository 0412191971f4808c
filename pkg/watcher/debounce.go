package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is how long the file must stay quiet before a
// change is reported. Editors and our own atomic saves produce bursts of
// create/write/rename events.
const DefaultDebounceDuration = 200 * time.Millisecond

// Debouncer runs the most recently triggered function once triggers stop
// arriving for its duration.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	timer    *time.Timer
	gen      uint64
}

// NewDebouncer returns a debouncer. A non-positive duration uses
// DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration { return d.duration }

// Trigger (re)starts the quiet period; fn replaces any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending function, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
