package traversal

import (
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// State is the lifecycle of the engine's current run.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
	Cancelled
)

// String returns a lower-case name for the state.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "found"
	case Failed:
		return "not found"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// DefaultStepDelay is the pause between visited vertices during animation.
const DefaultStepDelay = 500 * time.Millisecond

// Engine runs at most one search at a time and keeps the visited and path
// highlight sets for the renderer. Each run is identified by a token;
// stepping with a stale token is ignored, which is what makes a cancelled
// run impossible to resume.
type Engine struct {
	source    AdjacencySource
	stepDelay time.Duration

	state   State
	last    State
	token   uint64
	kind    Kind
	root    *model.Vertex
	target  *model.Vertex
	walker  Walker
	started time.Time

	visited    []*model.Vertex
	visitedSet map[int]bool
	path       []*model.Vertex
	pathSet    map[int]bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStepDelay sets the pacing delay reported by StepDelay. Non-positive
// values keep the default.
func WithStepDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.stepDelay = d
		}
	}
}

// NewEngine returns an idle engine reading adjacency from src.
func NewEngine(src AdjacencySource, opts ...EngineOption) *Engine {
	e := &Engine{
		source:     src,
		stepDelay:  DefaultStepDelay,
		visitedSet: make(map[int]bool),
		pathSet:    make(map[int]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a new run, cancelling any active one first. The adjacency
// view is captured now; later graph edits do not affect this run. It
// returns the run token to pass to Advance.
func (e *Engine) Start(kind Kind, root, target *model.Vertex) (uint64, error) {
	e.Cancel()

	adj := e.source.AdjacencyList()
	if err := CheckRoot(adj, root, target); err != nil {
		return 0, err
	}

	e.token++
	e.state = Running
	e.kind = kind
	e.root = root
	e.target = target
	e.walker = New(kind, adj, root, target)
	e.started = time.Now()
	debug.Log("traversal: %s run %d from %s to %s", kind, e.token, root, target)
	return e.token, nil
}

// Advance performs one step of the run identified by token. It returns
// false when the token is stale or the run is no longer running.
func (e *Engine) Advance(token uint64) (Step, bool) {
	if token != e.token || e.state != Running {
		return Step{}, false
	}
	step, ok := e.walker.Next()
	if !ok {
		return Step{}, false
	}
	if step.Vertex != nil && !e.visitedSet[step.Vertex.ID] {
		e.visitedSet[step.Vertex.ID] = true
		e.visited = append(e.visited, step.Vertex)
	}
	switch step.Result {
	case Found:
		e.finish(Succeeded)
		e.path = step.Path
		for _, v := range step.Path {
			e.pathSet[v.ID] = true
		}
	case NotFound:
		e.finish(Failed)
	}
	return step, true
}

func (e *Engine) finish(s State) {
	e.state = s
	e.last = s
	e.walker = nil
	elapsed := time.Since(e.started)
	metrics.Traversal.Record(elapsed)
	debug.Log("traversal: run %d %s after %d visits (%v)", e.token, s, len(e.visited), elapsed)
}

// Cancel stops any active run, clears the visited and path highlights and
// returns the engine to Idle. It reports whether a run was active.
// Calling it repeatedly is harmless.
func (e *Engine) Cancel() bool {
	wasRunning := e.state == Running
	if wasRunning {
		e.last = Cancelled
		debug.Log("traversal: run %d cancelled", e.token)
	}
	// bump the token so pending step timers for the old run are ignored
	e.token++
	e.state = Idle
	e.walker = nil
	e.root, e.target = nil, nil
	e.visited = nil
	e.path = nil
	clear(e.visitedSet)
	clear(e.pathSet)
	return wasRunning
}

// Forget drops highlight references to a deleted vertex. A run that
// involves the vertex as root or target is cancelled.
func (e *Engine) Forget(id int) {
	if (e.root != nil && e.root.ID == id) || (e.target != nil && e.target.ID == id) {
		e.Cancel()
		return
	}
	if e.visitedSet[id] || e.pathSet[id] {
		e.Cancel()
	}
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// LastOutcome returns the terminal state of the most recent run, or Idle if
// no run has finished.
func (e *Engine) LastOutcome() State { return e.last }

// Active reports whether a run is in progress.
func (e *Engine) Active() bool { return e.state == Running }

// Token returns the current run token.
func (e *Engine) Token() uint64 { return e.token }

// Kind returns the algorithm of the current or last run.
func (e *Engine) Kind() Kind { return e.kind }

// StepDelay returns the pacing delay between steps.
func (e *Engine) StepDelay() time.Duration { return e.stepDelay }

// Visited returns the vertices visited so far, in order.
func (e *Engine) Visited() []*model.Vertex { return e.visited }

// IsVisited reports whether id is in the visited highlight set.
func (e *Engine) IsVisited(id int) bool { return e.visitedSet[id] }

// Path returns the found path, or nil.
func (e *Engine) Path() []*model.Vertex { return e.path }

// InPath reports whether id is on the found path.
func (e *Engine) InPath(id int) bool { return e.pathSet[id] }
