package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// holdElapsedMsg delivers an armed hold timer back to the session.
type holdElapsedMsg struct{ token uint64 }

// stepElapsedMsg delivers a traversal step timer back to the session.
type stepElapsedMsg struct{ token uint64 }

// sink is the session's view of the UI: it collects status messages and
// turns timer requests into tea.Tick commands. The Model is copied on every
// Update, so the session holds this by pointer and the Model drains it
// after each event.
type sink struct {
	status  string
	isError bool
	redraws int
	pending []tea.Cmd

	// most recent tokens handed out
	lastHold, lastStep uint64
	holdsArmed         int
}

func (s *sink) Report(msg string) {
	s.status = msg
	s.isError = false
}

func (s *sink) reportError(msg string) {
	s.status = msg
	s.isError = true
}

func (s *sink) RequestRedraw() { s.redraws++ }

func (s *sink) ScheduleHold(token uint64, after time.Duration) {
	s.lastHold = token
	s.holdsArmed++
	s.pending = append(s.pending, tea.Tick(after, func(time.Time) tea.Msg {
		return holdElapsedMsg{token: token}
	}))
}

func (s *sink) ScheduleStep(token uint64, after time.Duration) {
	s.lastStep = token
	s.pending = append(s.pending, tea.Tick(after, func(time.Time) tea.Msg {
		return stepElapsedMsg{token: token}
	}))
}

// drain returns the timers scheduled since the last drain.
func (s *sink) drain() []tea.Cmd {
	cmds := s.pending
	s.pending = nil
	return cmds
}
