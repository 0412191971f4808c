package interaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/editmode"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"
	"github.com/vanderheijden86/graphsketch/pkg/traversal"
)

// Session is the explicit selection context for one graph. All methods
// must be called from a single goroutine (the UI event loop).
type Session struct {
	store  *graph.Store
	engine *traversal.Engine
	modes  *editmode.Controller

	status StatusSink
	render RenderSink
	sched  Scheduler
	opts   Options
	now    func() time.Time

	// current gesture
	phase     Phase
	pressed   *model.Vertex
	pressAt   Point
	origin    Point
	holdToken uint64

	// drag release used to swallow the follow-up click
	releasedAt  time.Time
	releasePt   Point
	justDragged bool

	edgeBuffer    *model.Vertex
	distance      DistanceMode
	distanceFirst *model.Vertex
	lastHop       *traversal.HopResult

	target *model.Vertex
	root   *model.Vertex
}

// Option configures a Session.
type Option func(*Session)

// WithStatus sets the status sink.
func WithStatus(s StatusSink) Option { return func(x *Session) { x.status = s } }

// WithRender sets the render sink.
func WithRender(r RenderSink) Option { return func(x *Session) { x.render = r } }

// WithScheduler sets the timer scheduler.
func WithScheduler(s Scheduler) Option { return func(x *Session) { x.sched = s } }

// WithOptions replaces the gesture options.
func WithOptions(o Options) Option { return func(x *Session) { x.opts = o } }

// WithStepDelay sets the traversal pacing delay.
func WithStepDelay(d time.Duration) Option {
	return func(x *Session) { x.engine = traversal.NewEngine(x.store, traversal.WithStepDelay(d)) }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(x *Session) { x.now = now } }

// NewSession returns an idle session over store.
func NewSession(store *graph.Store, opts ...Option) *Session {
	s := &Session{
		store:  store,
		engine: traversal.NewEngine(store),
		modes:  editmode.New(store),
		status: nopSink{},
		render: nopSink{},
		sched:  nopSink{},
		opts:   DefaultOptions(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the graph store.
func (s *Session) Store() *graph.Store { return s.store }

// Engine returns the traversal engine, for reading highlights.
func (s *Session) Engine() *traversal.Engine { return s.engine }

// Modes returns the edit/delete controller, for reading and editing the
// preview.
func (s *Session) Modes() *editmode.Controller { return s.modes }

// Options returns the gesture options.
func (s *Session) Options() Options { return s.opts }

// SetBounds changes the editable rectangle, e.g. after a window resize.
// Vertices already placed are not moved.
func (s *Session) SetBounds(b Bounds) { s.opts.Bounds = b }

// Phase returns the pointer gesture state.
func (s *Session) Phase() Phase { return s.phase }

// Pressed returns the vertex under the active press, or nil.
func (s *Session) Pressed() *model.Vertex { return s.pressed }

// Target returns the selected target vertex, or nil.
func (s *Session) Target() *model.Vertex { return s.target }

// EdgeBuffer returns the first vertex of a pending edge, or nil.
func (s *Session) EdgeBuffer() *model.Vertex { return s.edgeBuffer }

// Distance returns the distance mode and its captured first vertex.
func (s *Session) Distance() (DistanceMode, *model.Vertex) { return s.distance, s.distanceFirst }

// LastHop returns the result of the last distance query, or nil.
func (s *Session) LastHop() *traversal.HopResult { return s.lastHop }

// RootPinned reports whether the search root was chosen explicitly.
func (s *Session) RootPinned() bool { return s.root != nil }

// Root returns the search root: the pinned vertex, or the topmost one.
func (s *Session) Root() *model.Vertex {
	if s.root != nil {
		return s.root
	}
	return s.store.FindTopmost()
}

func (s *Session) report(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	debug.Log("session: %s", msg)
	s.status.Report(msg)
}

func (s *Session) redraw() { s.render.RequestRedraw() }

// PointerDown starts a gesture.
func (s *Session) PointerDown(pt Point, b Button) {
	if b == Secondary {
		s.secondary(pt)
		return
	}
	if s.swallowClick(pt) {
		return
	}
	if s.phase != Idle {
		return
	}

	v := s.store.VertexAt(pt.X, pt.Y)
	if v == nil {
		s.createAt(pt)
		return
	}

	if s.engine.Active() {
		s.engine.Cancel()
		s.report("Search stopped")
	}
	s.phase = HoldPending
	s.pressed = v
	s.pressAt = pt
	s.origin = Point{X: v.X, Y: v.Y}
	if s.modes.Mode() != editmode.Delete {
		s.armHold()
	}
	s.redraw()
}

// swallowClick consumes the just-dragged flag. A press that lands right
// after a drag release, at the release point, is the synthetic click of
// that drag and is dropped.
func (s *Session) swallowClick(pt Point) bool {
	if !s.justDragged {
		return false
	}
	s.justDragged = false
	return s.now().Sub(s.releasedAt) <= s.opts.ClickSuppression &&
		pt.Dist(s.releasePt) <= s.opts.DragThreshold
}

func (s *Session) createAt(pt Point) {
	if s.modes.Active() {
		return
	}
	pt = s.opts.Bounds.Clamp(pt, s.opts.KeepOutMargin)
	v, err := s.store.AddVertex(pt.X, pt.Y, "")
	if err != nil {
		s.report("%v", err)
		return
	}
	s.target = v
	s.report("Added vertex %s", v.Label)
	s.redraw()
}

func (s *Session) armHold() {
	s.holdToken++
	s.sched.ScheduleHold(s.holdToken, s.opts.HoldDuration)
}

func (s *Session) cancelHold() { s.holdToken++ }

// PointerMove tracks the active press. Past the drag threshold the vertex
// follows the pointer and the hold is cancelled; back within it the vertex
// returns to where it was pressed and the hold is re-armed.
func (s *Session) PointerMove(pt Point) {
	if s.phase != HoldPending && s.phase != Dragging {
		return
	}
	if s.pressed == nil || s.modes.Mode() == editmode.Delete {
		return
	}

	if pt.Dist(s.pressAt) > s.opts.DragThreshold {
		if s.phase == HoldPending {
			s.phase = Dragging
			s.cancelHold()
		}
		dest := Point{X: s.origin.X + pt.X - s.pressAt.X, Y: s.origin.Y + pt.Y - s.pressAt.Y}
		dest = s.opts.Bounds.Clamp(dest, s.opts.KeepOutMargin)
		_ = s.store.MoveVertex(s.pressed.ID, dest.X, dest.Y)
		s.redraw()
		return
	}

	if s.phase == Dragging {
		s.phase = HoldPending
		_ = s.store.MoveVertex(s.pressed.ID, s.origin.X, s.origin.Y)
		s.armHold()
		s.redraw()
	}
}

// PointerUp ends the gesture: a drag commits its position, a short still
// press is a click.
func (s *Session) PointerUp(pt Point) {
	v := s.pressed
	phase := s.phase
	s.phase = Idle
	s.pressed = nil

	if v == nil {
		return
	}
	switch phase {
	case Dragging:
		s.justDragged = true
		s.releasedAt = s.now()
		s.releasePt = pt
		debug.Log("session: dragged %s to (%.1f, %.1f)", v.Label, v.X, v.Y)
		s.redraw()
	case HoldPending:
		s.cancelHold()
		s.click(v)
	case Held:
		s.redraw()
	}
}

// HoldElapsed delivers an armed hold timer. Stale tokens are ignored.
func (s *Session) HoldElapsed(token uint64) {
	if token != s.holdToken || s.phase != HoldPending || s.pressed == nil {
		return
	}
	if err := s.modes.EnterEdit(s.pressed.ID); err != nil {
		s.report("%v", err)
		return
	}
	s.phase = Held
	s.report("Editing %s", s.pressed.Label)
	s.redraw()
}

func (s *Session) click(v *model.Vertex) {
	switch s.modes.Mode() {
	case editmode.Delete:
		marked, err := s.modes.ToggleMark(v.ID)
		if err != nil {
			s.report("%v", err)
			return
		}
		if marked {
			s.report("Marked %s for deletion (%d marked)", v.Label, len(s.modes.Marked()))
		} else {
			s.report("Unmarked %s (%d marked)", v.Label, len(s.modes.Marked()))
		}
		s.redraw()
		return
	case editmode.Edit:
		return
	}

	if s.distance != DistanceOff {
		s.captureDistance(v)
		return
	}
	s.target = v
	s.report("Target: %s", v.Label)
	s.redraw()
}

func (s *Session) captureDistance(v *model.Vertex) {
	if s.distance == AwaitingFirst {
		s.distanceFirst = v
		s.distance = AwaitingSecond
		s.report("Distance from %s: select the second vertex", v.Label)
		s.redraw()
		return
	}

	from := s.distanceFirst
	hop := traversal.ShortestHopPath(s.store.AdjacencyList(), from, v)
	s.lastHop = &hop
	s.distance = DistanceOff
	s.distanceFirst = nil
	if hop.Reachable() {
		s.report("Distance %s to %s: %d (%s)", from.Label, v.Label, hop.Distance, FormatPath(hop.Path))
	} else {
		s.report("No path between %s and %s", from.Label, v.Label)
	}
	s.redraw()
}

// FormatPath joins vertex labels with arrows.
func FormatPath(p []*model.Vertex) string {
	return strings.Join(model.Labels(p), " → ")
}

func (s *Session) secondary(pt Point) {
	if s.modes.Active() || s.phase != Idle {
		return
	}
	v := s.store.VertexAt(pt.X, pt.Y)
	if v == nil {
		if s.edgeBuffer != nil {
			s.edgeBuffer = nil
			s.report("Edge selection cleared")
			s.redraw()
		}
		return
	}

	first := s.edgeBuffer
	if first == nil {
		s.edgeBuffer = v
		s.report("Selected %s, select a second vertex to connect", v.Label)
		s.redraw()
		return
	}

	s.edgeBuffer = nil
	defer s.redraw()
	if first == v {
		s.report("%v", ErrSelfEdge)
		return
	}
	set := s.store.Settings()
	e, err := s.store.AddEdge(first, v, set.Weight, set.EdgeType, set.Direction)
	if err != nil {
		if errors.Is(err, graph.ErrEdgeAlreadyExists) {
			s.report("Edge between %s and %s already exists", first.Label, v.Label)
			return
		}
		s.report("%v", err)
		return
	}
	s.report("Added edge %s", e)
}

// ToggleDistanceMode enters or leaves two-click distance capture.
func (s *Session) ToggleDistanceMode() {
	s.distanceFirst = nil
	if s.distance != DistanceOff {
		s.distance = DistanceOff
		s.report("Distance mode off")
	} else {
		s.distance = AwaitingFirst
		s.report("Distance mode: select the first vertex")
	}
	s.redraw()
}

// RunSearch starts an animated search from Root to Target. The first step
// is taken immediately; the rest arrive through StepElapsed.
func (s *Session) RunSearch(kind traversal.Kind) {
	if s.modes.Active() {
		s.report("Finish %s mode first", s.modes.Mode())
		return
	}
	if s.target == nil {
		s.report("Select a target vertex first")
		return
	}
	root := s.Root()
	token, err := s.engine.Start(kind, root, s.target)
	if err != nil {
		s.report("%v", err)
		s.redraw()
		return
	}
	s.report("%s from %s to %s", kind, root.Label, s.target.Label)
	s.step(token)
}

// StepElapsed delivers a traversal step timer. Stale tokens are ignored.
func (s *Session) StepElapsed(token uint64) {
	s.step(token)
}

func (s *Session) step(token uint64) {
	st, ok := s.engine.Advance(token)
	if !ok {
		return
	}
	s.redraw()
	switch st.Result {
	case traversal.Found:
		s.report("%s found %s: %s", s.engine.Kind(), st.Vertex.Label, FormatPath(st.Path))
	case traversal.NotFound:
		s.report("%s: target not reachable", s.engine.Kind())
	default:
		s.sched.ScheduleStep(token, s.engine.StepDelay())
	}
}

// StopSearch cancels a running search and clears the highlights of a
// finished one.
func (s *Session) StopSearch() {
	if s.engine.Cancel() {
		s.report("Search stopped")
	}
	s.redraw()
}

// ClearGraph empties the store and every piece of selection state.
func (s *Session) ClearGraph() {
	s.engine.Cancel()
	s.modes.Reset()
	s.store.Clear()
	s.resetSelection()
	s.report("Graph cleared")
	s.redraw()
}

// Import replaces the graph with other and clears selection state.
func (s *Session) Import(other *graph.Store) {
	s.engine.Cancel()
	s.modes.Reset()
	s.store.Replace(other)
	s.resetSelection()
	s.report("Loaded %d vertices, %d edges", s.store.Len(), len(s.store.Edges()))
	s.redraw()
}

func (s *Session) resetSelection() {
	s.phase = Idle
	s.pressed = nil
	s.cancelHold()
	s.justDragged = false
	s.edgeBuffer = nil
	s.distance = DistanceOff
	s.distanceFirst = nil
	s.lastHop = nil
	s.target = nil
	s.root = nil
}

// PinRoot makes the current target the search root. Pinning the vertex
// that is already the root unpins it.
func (s *Session) PinRoot() {
	switch {
	case s.target == nil:
		s.report("Select a vertex to use as root")
	case s.root == s.target:
		s.root = nil
		s.report("Root unpinned, using topmost vertex")
	default:
		s.root = s.target
		s.report("Root: %s", s.root.Label)
	}
	s.redraw()
}

// EnterDeleteMode starts bulk delete.
func (s *Session) EnterDeleteMode() {
	if err := s.modes.EnterDelete(); err != nil {
		s.report("%v", err)
		return
	}
	s.engine.Cancel()
	s.edgeBuffer = nil
	s.report("Delete mode: click vertices to mark them")
	s.redraw()
}

// CommitDelete removes the marked vertices.
func (s *Session) CommitDelete() {
	ids, err := s.modes.CommitDelete()
	if err != nil {
		s.report("%v", err)
		return
	}
	s.forget(ids...)
	s.report("Deleted %d vertices", len(ids))
	s.redraw()
}

// CancelDelete leaves delete mode and restores the graph.
func (s *Session) CancelDelete() {
	if s.modes.Mode() != editmode.Delete {
		return
	}
	s.modes.CancelDelete()
	s.report("Delete cancelled")
	s.redraw()
}

// SaveEdit commits the edit preview. On failure the mode stays active and
// the error is reported.
func (s *Session) SaveEdit() {
	c, err := s.modes.Save()
	if err != nil {
		s.report("%v", err)
		return
	}
	if c.Deleted {
		s.forget(c.Vertex.ID)
		s.report("Deleted vertex %s", c.Vertex.Label)
	} else {
		s.report("Saved %s", c.Vertex.Label)
	}
	s.redraw()
}

// CancelEdit discards the edit preview.
func (s *Session) CancelEdit() {
	if s.modes.Mode() != editmode.Edit {
		return
	}
	s.modes.CancelEdit()
	s.report("Edit cancelled")
	s.redraw()
}

// forget drops references to deleted vertices.
func (s *Session) forget(ids ...int) {
	gone := make(map[int]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
		s.engine.Forget(id)
	}
	drop := func(v **model.Vertex) {
		if *v != nil && gone[(*v).ID] {
			*v = nil
		}
	}
	drop(&s.target)
	drop(&s.root)
	drop(&s.edgeBuffer)
	drop(&s.pressed)
	if s.distanceFirst != nil && gone[s.distanceFirst.ID] {
		s.distanceFirst = nil
		s.distance = AwaitingFirst
	}
	if s.lastHop != nil {
		for _, v := range s.lastHop.Path {
			if gone[v.ID] {
				s.lastHop = nil
				break
			}
		}
	}
}

// CycleEdgeType advances the default type for new edges.
func (s *Session) CycleEdgeType() {
	set := s.store.Settings()
	set.EdgeType = set.EdgeType.Next()
	s.store.SetSettings(set)
	s.report("New edges: %s", set.EdgeType)
}

// CycleDirection advances the default direction for new edges.
func (s *Session) CycleDirection() {
	set := s.store.Settings()
	set.Direction = set.Direction.Next()
	s.store.SetSettings(set)
	s.report("New edges: %s", set.Direction)
}

// SetDefaultWeight sets the weight given to new edges; nil means
// unweighted.
func (s *Session) SetDefaultWeight(w *float64) {
	set := s.store.Settings()
	set.Weight = w
	s.store.SetSettings(set)
	if w == nil {
		s.report("New edges: unweighted")
		return
	}
	s.report("New edges: weight %g", *w)
}
