package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/graphsketch/pkg/debug"
)

// maxOutput caps the captured stdout and stderr shown in summaries.
const maxOutput = 500

// Result is the outcome of one hook.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Executor runs the hooks of one export and keeps their results.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []Result
}

// NewExecutor returns an executor for cfg with the export described by ec.
func NewExecutor(cfg *Config, ec ExportContext) *Executor {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Executor{config: cfg, ctx: ec}
}

// RunPreExport runs the pre-export hooks in order. It stops at the first
// failing hook whose on_error is "fail" and returns its error.
func (e *Executor) RunPreExport(ctx context.Context) error {
	return e.run(ctx, PreExport)
}

// RunPostExport runs every post-export hook and returns the first error of
// a hook whose on_error is "fail". Later hooks still run.
func (e *Executor) RunPostExport(ctx context.Context) error {
	return e.run(ctx, PostExport)
}

func (e *Executor) run(ctx context.Context, phase Phase) error {
	var firstErr error
	for _, h := range e.config.Get(phase) {
		r := e.runHook(ctx, h, phase)
		e.results = append(e.results, r)
		if r.Success || h.OnError != OnErrorFail {
			continue
		}
		err := fmt.Errorf("%s hook %q failed: %w", phase, h.Name, r.Err)
		if phase == PreExport {
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Executor) runHook(ctx context.Context, h Hook, phase Phase) Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	env := append(os.Environ(), e.ctx.Env()...)
	lookup := func(key string) string {
		prefix := key + "="
		for i := len(env) - 1; i >= 0; i-- {
			if v, ok := strings.CutPrefix(env[i], prefix); ok {
				return v
			}
		}
		return ""
	}
	for k, v := range h.Env {
		env = append(env, k+"="+os.Expand(v, lookup))
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = env
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s", h.Timeout)
	}
	r := Result{
		Hook:     h,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
		Err:      err,
	}
	debug.Log("hooks: %s %q success=%v in %s", phase, h.Name, r.Success, r.Duration)
	return r
}

// Results returns the results so far, in run order.
func (e *Executor) Results() []Result { return e.results }

// Summary describes the run, one line per failure.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return "no hooks ran"
	}
	ok, failed := 0, 0
	var b strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "\n  %s %s: %v", r.Phase, r.Hook.Name, r.Err)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "\n    %s", truncate(r.Stderr, maxOutput))
		}
	}
	return fmt.Sprintf("hooks: %d succeeded, %d failed", ok, failed) + b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
