// Package interaction is the selection and pointer state machine that sits
// between an input source and the graph store.
//
// A Session turns pointer events and discrete commands into store
// mutations, traversal runs and edit/delete mode transitions. It never
// draws and never blocks: appearance changes are announced through a
// RenderSink, user-facing messages go to a StatusSink, and every delay (the
// long-press hold, traversal step pacing) is requested from a Scheduler
// and comes back later as HoldElapsed or StepElapsed carrying a token.
// Tokens that no longer match are ignored, so cancelling a timer only ever
// means bumping a counter.
package interaction

import (
	"errors"
	"math"
	"time"
)

// ErrSelfEdge is reported when both ends of a requested edge are the same
// vertex.
var ErrSelfEdge = errors.New("interaction: cannot connect a vertex to itself")

// Point is a position in graph coordinates.
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Button identifies the pointer button of a press.
type Button int

const (
	// Primary creates, selects and drags.
	Primary Button = iota
	// Secondary feeds the two-step edge creation buffer.
	Secondary
)

// Phase is the pointer gesture state.
type Phase int

const (
	Idle Phase = iota
	// HoldPending: a vertex is pressed and the hold timer is armed.
	HoldPending
	// Dragging: the pointer moved past the drag threshold.
	Dragging
	// Held: the hold elapsed and edit mode was entered; the release is
	// swallowed.
	Held
)

func (p Phase) String() string {
	switch p {
	case HoldPending:
		return "hold-pending"
	case Dragging:
		return "dragging"
	case Held:
		return "held"
	default:
		return "idle"
	}
}

// DistanceMode is the two-click shortest path capture.
type DistanceMode int

const (
	DistanceOff DistanceMode = iota
	AwaitingFirst
	AwaitingSecond
)

// Bounds is the editable canvas rectangle. A zero Bounds is unbounded.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// IsZero reports whether b is unset.
func (b Bounds) IsZero() bool { return b == Bounds{} }

// Clamp pulls p inside b shrunk by margin on every side.
func (b Bounds) Clamp(p Point, margin float64) Point {
	if b.IsZero() {
		return p
	}
	minX, maxX := b.MinX+margin, b.MaxX-margin
	minY, maxY := b.MinY+margin, b.MaxY-margin
	if minX > maxX {
		minX, maxX = (b.MinX+b.MaxX)/2, (b.MinX+b.MaxX)/2
	}
	if minY > maxY {
		minY, maxY = (b.MinY+b.MaxY)/2, (b.MinY+b.MaxY)/2
	}
	return Point{X: min(max(p.X, minX), maxX), Y: min(max(p.Y, minY), maxY)}
}

// Options tunes gesture recognition.
type Options struct {
	// HoldDuration is how long a still press must last to enter edit mode.
	HoldDuration time.Duration
	// DragThreshold is the pointer travel that turns a press into a drag.
	DragThreshold float64
	// KeepOutMargin is the border strip of Bounds a vertex cannot be
	// dragged into.
	KeepOutMargin float64
	// ClickSuppression is how long after a drag release a press at the
	// release point is ignored.
	ClickSuppression time.Duration
	Bounds           Bounds
}

// DefaultOptions returns the stock gesture settings.
func DefaultOptions() Options {
	return Options{
		HoldDuration:     600 * time.Millisecond,
		DragThreshold:    5,
		KeepOutMargin:    10,
		ClickSuppression: 250 * time.Millisecond,
	}
}

// StatusSink receives transient user-facing messages.
type StatusSink interface {
	Report(msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(msg string)

// Report calls f(msg).
func (f StatusFunc) Report(msg string) { f(msg) }

// RenderSink is asked to redraw after every visible state change.
type RenderSink interface {
	RequestRedraw()
}

// RedrawFunc adapts a function to RenderSink.
type RedrawFunc func()

// RequestRedraw calls f.
func (f RedrawFunc) RequestRedraw() { f() }

// Scheduler arranges for HoldElapsed and StepElapsed to be delivered back
// to the session after a delay.
type Scheduler interface {
	ScheduleHold(token uint64, after time.Duration)
	ScheduleStep(token uint64, after time.Duration)
}

type nopSink struct{}

func (nopSink) Report(string)                     {}
func (nopSink) RequestRedraw()                    {}
func (nopSink) ScheduleHold(uint64, time.Duration) {}
func (nopSink) ScheduleStep(uint64, time.Duration) {}
