package persist

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
)

// MultiSaver writes the same document to several targets concurrently.
type MultiSaver struct {
	targets []Saver
}

// NewMultiSaver returns a saver over targets. Nil targets are skipped.
func NewMultiSaver(targets ...Saver) *MultiSaver {
	m := &MultiSaver{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

// Len returns the number of targets.
func (m *MultiSaver) Len() int { return len(m.targets) }

func (m *MultiSaver) String() string {
	names := make([]string, len(m.targets))
	for i, t := range m.targets {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// Save writes data to every target and returns the first failure.
func (m *MultiSaver) Save(ctx context.Context, data []byte) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range m.targets {
		g.Go(func() error {
			if err := t.Save(ctx, data); err != nil {
				return fmt.Errorf("%s: %w", t, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Autosaver saves a graph only when its encoded form differs from what was
// last saved.
type Autosaver struct {
	saver Saver
	last  []byte
}

// NewAutosaver returns an autosaver writing to saver.
func NewAutosaver(saver Saver) *Autosaver {
	return &Autosaver{saver: saver}
}

// Encode returns the bytes Save would write, and whether they differ from
// the last saved bytes.
func (a *Autosaver) Encode(s *graph.Store) ([]byte, bool, error) {
	data, err := Marshal(s)
	if err != nil {
		return nil, false, err
	}
	return data, !bytes.Equal(data, a.last), nil
}

// Save writes s if it changed and reports whether anything was written.
func (a *Autosaver) Save(ctx context.Context, s *graph.Store) (bool, error) {
	data, changed, err := a.Encode(s)
	if err != nil || !changed {
		return false, err
	}
	if err := a.Commit(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// Commit writes already encoded data and remembers it as saved. Callers
// that encode on one goroutine and write on another use Encode then
// Commit.
func (a *Autosaver) Commit(ctx context.Context, data []byte) error {
	if err := a.saver.Save(ctx, data); err != nil {
		return err
	}
	a.MarkSaved(data)
	debug.Log("persist: saved %d bytes to %s", len(data), a.saver)
	return nil
}

// MarkSaved records data as the saved state, e.g. after loading a file.
func (a *Autosaver) MarkSaved(data []byte) {
	a.last = bytes.Clone(data)
}

// IsSaved reports whether data matches the last saved bytes. The watcher
// uses it to ignore change events caused by our own writes.
func (a *Autosaver) IsSaved(data []byte) bool {
	return a.last != nil && bytes.Equal(a.last, data)
}

// Target returns the underlying saver.
func (a *Autosaver) Target() Saver { return a.saver }
