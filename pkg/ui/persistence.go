package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/graphsketch/internal/datasource"
	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
	"github.com/vanderheijden86/graphsketch/pkg/watcher"
)

// saveTimeout bounds one write to the save target.
const saveTimeout = 10 * time.Second

// autosaveTickMsg fires every autosave interval.
type autosaveTickMsg struct{}

// savedMsg reports the outcome of a background save.
type savedMsg struct {
	data   []byte
	err    error
	manual bool
}

// FileChangedMsg is sent when the open graph file changes on disk.
type FileChangedMsg struct {
	Event watcher.Event
}

func autosaveTickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return autosaveTickMsg{}
	})
}

// WatchFileCmd returns a command that waits for the next settled change
// and sends FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return FileChangedMsg{Event: ev}
	}
}

// saveCmd encodes the graph on the event loop and writes it in the
// background. Nothing is written while a mode is staging changes, while a
// save is in flight, or when the bytes equal the last save.
func (m *Model) saveCmd(manual bool) tea.Cmd {
	if m.autosaver == nil {
		if manual {
			m.sink.reportError("No save target")
		}
		return nil
	}
	if m.session.Modes().Active() {
		if manual {
			m.sink.reportError(fmt.Sprintf("Finish %s mode first", m.session.Modes().Mode()))
		}
		return nil
	}
	if m.saving {
		return nil
	}
	data, changed, err := m.autosaver.Encode(m.session.Store())
	if err != nil {
		m.sink.reportError(fmt.Sprintf("Save failed: %v", err))
		return nil
	}
	if !changed {
		if manual {
			m.sink.Report("No changes to save")
		}
		return nil
	}

	m.saving = true
	if m.watcher != nil {
		m.watcher.SetBaseline(data)
	}
	target := m.autosaver.Target()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return savedMsg{data: data, err: target.Save(ctx, data), manual: manual}
	}
}

func (m *Model) handleSaved(msg savedMsg) {
	m.saving = false
	if msg.err != nil {
		m.sink.reportError(fmt.Sprintf("Save failed: %v", msg.err))
		return
	}
	m.autosaver.MarkSaved(msg.data)
	m.dirtyValid = false
	if msg.manual {
		m.sink.Report(fmt.Sprintf("Saved to %s", m.autosaver.Target()))
	}
}

// flush saves synchronously before quitting.
func (m *Model) flush() {
	if m.autosaver == nil || m.session.Modes().Active() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if _, err := m.autosaver.Save(ctx, m.session.Store()); err != nil {
		debug.Log("ui: final save failed: %v", err)
	}
}

// refreshDirty recomputes the unsaved-changes marker when the graph or the
// saved state changed since the last check.
func (m *Model) refreshDirty() {
	if m.autosaver == nil {
		return
	}
	rev := m.session.Store().Revision()
	if m.dirtyValid && m.dirtyRev == rev {
		return
	}
	_, changed, err := m.autosaver.Encode(m.session.Store())
	// a graph that fails to encode is still unsaved
	m.dirty = err != nil || changed
	m.dirtyRev = rev
	m.dirtyValid = true
}

// handleFileChanged applies an external change to the open file. Changes
// that arrive while the user is mid-gesture or in a mode wait until the
// session is idle again.
func (m *Model) handleFileChanged(ev watcher.Event) {
	if ev.Removed {
		m.sink.reportError(fmt.Sprintf("%s was removed; the next save recreates it", ev.Path))
		return
	}
	if m.autosaver != nil && m.autosaver.IsSaved(ev.Data) {
		return
	}
	if m.session.Modes().Active() || m.session.Phase() != interaction.Idle {
		m.pendingReload = &ev
		m.sink.Report("File changed on disk; reloading when you are done")
		return
	}
	m.reload(ev)
}

func (m *Model) applyPendingReload() {
	if m.pendingReload == nil || m.session.Modes().Active() || m.session.Phase() != interaction.Idle {
		return
	}
	ev := *m.pendingReload
	m.pendingReload = nil
	m.reload(ev)
}

func (m *Model) reload(ev watcher.Event) {
	incoming, err := persist.Unmarshal(ev.Data)
	if err != nil {
		m.sink.reportError(fmt.Sprintf("Reload failed: %v", err))
		return
	}
	diff := datasource.DetectInconsistencies(m.session.Store(), incoming, "open", "disk", datasource.DefaultDiffOptions())
	m.session.Import(incoming)
	if m.autosaver != nil {
		m.autosaver.MarkSaved(ev.Data)
		m.dirtyValid = false
	}
	debug.Log("ui: reloaded %s: %s", ev.Path, diff.Short())
	m.sink.Report(fmt.Sprintf("Reloaded from disk: %s", diff.Short()))
}
