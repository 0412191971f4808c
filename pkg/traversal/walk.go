package traversal

import (
	"context"
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/model"
)

// Walk runs a complete search, calling onVisit for every step and pausing
// delay between steps. It returns the terminal step, or ctx.Err() if the
// context is cancelled while waiting. A zero delay runs without pausing.
func Walk(ctx context.Context, kind Kind, adj Adjacency, root, target *model.Vertex, delay time.Duration, onVisit func(Step)) (Step, error) {
	if err := CheckRoot(adj, root, target); err != nil {
		return Step{}, err
	}

	w := New(kind, adj, root, target)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		step, ok := w.Next()
		if !ok {
			return Step{Result: NotFound}, nil
		}
		if onVisit != nil {
			onVisit(step)
		}
		if step.Done() {
			return step, nil
		}

		if delay <= 0 {
			if err := ctx.Err(); err != nil {
				return Step{}, err
			}
			continue
		}
		if timer == nil {
			timer = time.NewTimer(delay)
		} else {
			timer.Reset(delay)
		}
		select {
		case <-ctx.Done():
			return Step{}, ctx.Err()
		case <-timer.C:
		}
	}
}
