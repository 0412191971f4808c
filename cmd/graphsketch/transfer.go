package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/graphsketch/internal/datasource"
	"github.com/vanderheijden86/graphsketch/pkg/config"
	"github.com/vanderheijden86/graphsketch/pkg/hooks"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
)

func isLibraryPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// confirmReplace asks before a non-empty graph is overwritten. Off a
// terminal the answer is no and the caller has to pass --yes.
func confirmReplace(what string, vertices int) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, fmt.Errorf("%s has %d vertices; pass --yes to replace it", what, vertices)
	}
	replace := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Replace %s?", what)).
				Description(fmt.Sprintf("It holds %d vertices.", vertices)).
				Value(&replace).
				Affirmative("Replace").
				Negative("Keep"),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return false, err
	}
	return replace, nil
}

// hookExecutor loads hooks.yaml from the config directory. With --no-hooks
// the executor has nothing to run.
func (a *app) hookExecutor(skip bool, warn io.Writer, ec hooks.ExportContext) (*hooks.Executor, error) {
	if skip {
		return hooks.NewExecutor(nil, ec), nil
	}
	dir := config.ConfigDir()
	if a.configPath != "" {
		dir = filepath.Dir(a.configPath)
	}
	cfg, warnings, err := hooks.Load(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintln(warn, subtle.Sprint("hooks: "+w))
	}
	return hooks.NewExecutor(cfg, ec), nil
}

func (a *app) exportCmd() *cobra.Command {
	var to, name string
	var noHooks bool
	cmd := &cobra.Command{
		Use:   "export --to <file>",
		Short: "Copy the graph to another JSON file or a library slot",
		Long: "Copy the graph somewhere else. A .db or .sqlite destination is a library\n" +
			"database and the graph is stored under --name; anything else is written\n" +
			"as a JSON document. hooks.yaml in the config directory can run commands\n" +
			"before and after the export.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, src, err := a.openGraph(cmd.Context(), a.locator(nil), false)
			if err != nil {
				return err
			}

			format := "json"
			dst := datasource.DataSource{Type: datasource.SourceTypeFile, Path: to}
			if isLibraryPath(to) {
				format = "library"
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
					if src.Type == datasource.SourceTypeLibrary {
						name = src.Name
					}
				}
				dst = datasource.DataSource{Type: datasource.SourceTypeLibrary, Path: to, Name: name}
			}

			exec, err := a.hookExecutor(noHooks, cmd.ErrOrStderr(), hooks.ExportContext{
				Path:     to,
				Format:   format,
				Source:   src.Locator(),
				Vertices: store.Len(),
				Edges:    len(store.Edges()),
				Time:     time.Now(),
			})
			if err != nil {
				return err
			}
			if err := exec.RunPreExport(cmd.Context()); err != nil {
				return err
			}
			done := metrics.Timer(metrics.Export)
			err = writeGraph(cmd.Context(), dst, store)
			done()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d vertices, %d edges to %s\n",
				statusIcon(true), store.Len(), len(store.Edges()), dst.Locator())

			err = exec.RunPostExport(cmd.Context())
			if len(exec.Results()) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), subtle.Sprint(exec.Summary()))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "destination file")
	cmd.Flags().StringVar(&name, "name", "", "library slot name (default: source name)")
	cmd.Flags().BoolVar(&noHooks, "no-hooks", false, "skip the hooks in hooks.yaml")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the graph with one read from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in := persist.NewFileStore(args[0])
			if !in.Exists() {
				return fmt.Errorf("%s does not exist", args[0])
			}
			incoming, err := in.Load()
			if err != nil {
				return err
			}

			current, dst, err := a.openGraph(ctx, a.locator(nil), true)
			if err != nil {
				return err
			}
			if current.Len() > 0 && !yes {
				ok, err := confirmReplace(dst.Locator(), current.Len())
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), subtle.Sprint("Import cancelled"))
					return nil
				}
			}

			if err := writeGraph(ctx, dst, incoming); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d vertices, %d edges into %s\n",
				statusIcon(true), incoming.Len(), len(incoming.Edges()), dst.Locator())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace a non-empty graph without asking")
	return cmd
}
