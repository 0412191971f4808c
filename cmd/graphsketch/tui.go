package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/graphsketch/internal/datasource"
	"github.com/vanderheijden86/graphsketch/pkg/config"
	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
	"github.com/vanderheijden86/graphsketch/pkg/ui"
	"github.com/vanderheijden86/graphsketch/pkg/watcher"
)

var errNoTerminal = errors.New("the editor needs a terminal; try the path, search or summary commands")

var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [graph]",
		Short: "Open the interactive editor (the default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runTUI,
	}
}

// debugLogPath is where GS_DEBUG output goes while the editor owns the
// terminal.
func debugLogPath() string {
	if !debug.Enabled() {
		return ""
	}
	if p := os.Getenv("GS_DEBUG_FILE"); p != "" {
		return p
	}
	if dir := config.StateDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, "debug.log")
		}
	}
	return ""
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNoTerminal
	}
	closeLog, err := debug.OpenLogFile(debugLogPath())
	if err != nil {
		return err
	}
	defer closeLog()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, src, err := a.openGraph(ctx, a.locator(args), true)
	if err != nil {
		return err
	}

	saver, closeFn, err := datasource.Saver(src)
	if err != nil {
		return err
	}
	defer closeFn()
	targets := []persist.Saver{saver}
	if slot := a.cfg.Storage.LibrarySlot; slot != "" && src.Type == datasource.SourceTypeFile && a.cfg.Storage.Library != "" {
		lib, err := persist.OpenLibrary(a.cfg.Storage.Library)
		if err != nil {
			return err
		}
		defer lib.Close()
		targets = append(targets, lib.Slot(slot))
	}

	opts := []ui.Option{
		ui.WithConfig(a.cfg),
		ui.WithSource(src.Locator()),
		ui.WithAutosave(persist.NewMultiSaver(targets...), a.cfg.Storage.AutosaveInterval.D()),
	}
	if a.cfg.Storage.Watch && src.Type == datasource.SourceTypeFile {
		if w := startWatcher(ctx, src.Path, a.cfg.ForcePoll()); w != nil {
			defer w.Stop()
			opts = append(opts, ui.WithWatcher(w))
		}
	}

	return runTUIProgram(ui.NewModel(store, opts...))
}

// startWatcher returns a running watcher, or nil when the file cannot be
// watched. Live reload is best effort.
func startWatcher(ctx context.Context, path string, forcePoll bool) *watcher.Watcher {
	w, err := watcher.New(path,
		watcher.WithForcePoll(forcePoll),
		watcher.WithErrorHandler(func(err error) { debug.Log("cli: watcher: %v", err) }),
	)
	if err != nil {
		debug.Log("cli: cannot watch %s: %v", path, err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		debug.Log("cli: cannot watch %s: %v", path, err)
		return nil
	}
	return w
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM: the model flushes on quit.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set GS_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("GS_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
			}()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	return nil
}
