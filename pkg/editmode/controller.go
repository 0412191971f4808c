// Package editmode implements the two exclusive modal states that stage
// changes against the graph store: single-vertex edit and bulk delete.
//
// Edit mode keeps a Preview separate from the committed vertex; nothing but
// the "apply size to all" mirror touches the store until Save. Delete mode
// snapshots the store and only removes vertices on CommitDelete, so
// CancelDelete puts everything back verbatim.
package editmode

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/model"
)

var (
	// ErrEditModeActive is returned when bulk delete is requested while a
	// vertex is being edited.
	ErrEditModeActive = errors.New("editmode: edit mode is active")

	// ErrDeleteModeActive is returned when editing is requested during bulk
	// delete.
	ErrDeleteModeActive = errors.New("editmode: delete mode is active")

	// ErrNoEdit is returned by edit operations when no vertex is being
	// edited.
	ErrNoEdit = errors.New("editmode: no vertex is being edited")

	// ErrNoDelete is returned by delete operations outside delete mode.
	ErrNoDelete = errors.New("editmode: delete mode is not active")
)

// Mode is the controller's current modal state.
type Mode int

const (
	None Mode = iota
	Edit
	Delete
)

func (m Mode) String() string {
	switch m {
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	default:
		return "none"
	}
}

// Preview is the staged state of the vertex being edited.
type Preview struct {
	Label         string
	Size          float64
	PendingDelete bool
	ApplyToAll    bool
}

// Commit describes what Save did.
type Commit struct {
	Vertex  *model.Vertex
	Deleted bool
}

// Controller owns the edit and delete modes for one store.
type Controller struct {
	store *graph.Store
	mode  Mode

	// edit mode
	editing   *model.Vertex
	origLabel string
	origSize  float64
	preview   Preview
	// sizes of the other vertices before apply-to-all was switched on
	mirrored map[int]float64

	// delete mode
	snapshot graph.Snapshot
	marks    map[int]bool
	order    []int
}

// New returns a controller in mode None.
func New(store *graph.Store) *Controller {
	return &Controller{store: store}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode { return c.mode }

// Active reports whether either mode is active.
func (c *Controller) Active() bool { return c.mode != None }

// EnterEdit starts editing vertex id. An edit already in progress on
// another vertex is cancelled first.
func (c *Controller) EnterEdit(id int) error {
	if c.mode == Delete {
		return ErrDeleteModeActive
	}
	v := c.store.FindByID(id)
	if v == nil {
		return fmt.Errorf("%w: id %d", graph.ErrVertexNotFound, id)
	}
	if c.mode == Edit {
		if c.editing == v {
			return nil
		}
		c.CancelEdit()
	}

	c.mode = Edit
	c.editing = v
	c.origLabel = v.Label
	c.origSize = v.Size
	c.preview = Preview{Label: v.Label, Size: v.Size}
	c.mirrored = nil
	debug.Log("editmode: editing %s", v)
	return nil
}

// Editing returns the vertex being edited, or nil.
func (c *Controller) Editing() *model.Vertex { return c.editing }

// Preview returns the staged values.
func (c *Controller) Preview() (Preview, error) {
	if c.mode != Edit {
		return Preview{}, ErrNoEdit
	}
	return c.preview, nil
}

// SetLabel stages a new label. Uniqueness is checked on Save.
func (c *Controller) SetLabel(label string) error {
	if c.mode != Edit {
		return ErrNoEdit
	}
	c.preview.Label = label
	return nil
}

// SetSize stages a new size. With apply-to-all on, every other vertex is
// resized immediately.
func (c *Controller) SetSize(size float64) error {
	if c.mode != Edit {
		return ErrNoEdit
	}
	if size < 0 {
		size = 0
	}
	c.preview.Size = size
	if c.preview.ApplyToAll {
		c.mirror()
	}
	return nil
}

// SetApplyToAll switches size mirroring. Turning it off restores the other
// vertices to the sizes they had when it was turned on.
func (c *Controller) SetApplyToAll(on bool) error {
	if c.mode != Edit {
		return ErrNoEdit
	}
	if on == c.preview.ApplyToAll {
		return nil
	}
	c.preview.ApplyToAll = on
	if on {
		c.mirrored = make(map[int]float64)
		for _, v := range c.store.Vertices() {
			if v != c.editing {
				c.mirrored[v.ID] = v.Size
			}
		}
		c.mirror()
		return nil
	}
	c.unmirror()
	return nil
}

func (c *Controller) mirror() {
	for id := range c.mirrored {
		_ = c.store.SetVertexSize(id, c.preview.Size)
	}
}

func (c *Controller) unmirror() {
	for id, size := range c.mirrored {
		// vertices deleted meanwhile are skipped
		_ = c.store.SetVertexSize(id, size)
	}
	c.mirrored = nil
}

// TogglePendingDelete flips the staged delete flag and returns the new value.
func (c *Controller) TogglePendingDelete() (bool, error) {
	if c.mode != Edit {
		return false, ErrNoEdit
	}
	c.preview.PendingDelete = !c.preview.PendingDelete
	return c.preview.PendingDelete, nil
}

// Save commits the preview. A pending delete removes the vertex and its
// edges. Otherwise label and size are written; a label collision returns
// graph.ErrDuplicateLabel and leaves the mode active with the preview
// intact.
func (c *Controller) Save() (Commit, error) {
	if c.mode != Edit {
		return Commit{}, ErrNoEdit
	}
	v := c.editing

	if c.preview.PendingDelete {
		c.unmirror()
		c.store.RemoveVertex(v.ID)
		c.exitEdit()
		debug.Log("editmode: deleted %s", v)
		return Commit{Vertex: v, Deleted: true}, nil
	}

	if err := c.store.RenameVertex(v.ID, c.preview.Label); err != nil {
		return Commit{}, err
	}
	if err := c.store.SetVertexSize(v.ID, c.preview.Size); err != nil {
		return Commit{}, err
	}
	c.exitEdit()
	debug.Log("editmode: saved %s", v)
	return Commit{Vertex: v}, nil
}

// CancelEdit discards the preview and reverts any mirrored sizes. The
// edited vertex itself was never touched.
func (c *Controller) CancelEdit() {
	if c.mode != Edit {
		return
	}
	c.unmirror()
	debug.Log("editmode: cancelled edit of %s", c.editing)
	c.exitEdit()
}

func (c *Controller) exitEdit() {
	c.mode = None
	c.editing = nil
	c.origLabel = ""
	c.origSize = 0
	c.preview = Preview{}
	c.mirrored = nil
}

// Original returns the label and size the edited vertex had on entry.
func (c *Controller) Original() (label string, size float64) {
	return c.origLabel, c.origSize
}

// EnterDelete starts bulk delete mode and snapshots the store.
func (c *Controller) EnterDelete() error {
	switch c.mode {
	case Edit:
		return ErrEditModeActive
	case Delete:
		return nil
	}
	c.mode = Delete
	c.snapshot = c.store.Snapshot()
	c.marks = make(map[int]bool)
	c.order = nil
	debug.Log("editmode: delete mode, %d vertices", c.snapshot.Len())
	return nil
}

// ToggleMark flips the deletion mark of id and returns the new state.
func (c *Controller) ToggleMark(id int) (bool, error) {
	if c.mode != Delete {
		return false, ErrNoDelete
	}
	if c.store.FindByID(id) == nil {
		return false, fmt.Errorf("%w: id %d", graph.ErrVertexNotFound, id)
	}
	if c.marks[id] {
		delete(c.marks, id)
		c.order = slices.DeleteFunc(c.order, func(m int) bool { return m == id })
		return false, nil
	}
	c.marks[id] = true
	c.order = append(c.order, id)
	return true, nil
}

// IsMarked reports whether id is marked for deletion.
func (c *Controller) IsMarked(id int) bool { return c.marks[id] }

// Marked returns the marked ids in marking order.
func (c *Controller) Marked() []int { return slices.Clone(c.order) }

// CommitDelete removes every marked vertex with its edges and leaves
// delete mode. It returns the removed ids.
func (c *Controller) CommitDelete() ([]int, error) {
	if c.mode != Delete {
		return nil, ErrNoDelete
	}
	ids := c.Marked()
	n := c.store.RemoveVertices(ids)
	debug.Log("editmode: committed delete of %d vertices", n)
	c.exitDelete()
	return ids, nil
}

// CancelDelete restores the store from the entry snapshot and leaves
// delete mode.
func (c *Controller) CancelDelete() {
	if c.mode != Delete {
		return
	}
	c.store.RestoreSnapshot(c.snapshot)
	debug.Log("editmode: cancelled delete mode")
	c.exitDelete()
}

func (c *Controller) exitDelete() {
	c.mode = None
	c.snapshot = graph.Snapshot{}
	c.marks = nil
	c.order = nil
}

// Reset drops either mode without committing. Used when the whole graph is
// cleared or replaced, where restoring a snapshot would be wrong.
func (c *Controller) Reset() {
	c.exitEdit()
	c.exitDelete()
}
