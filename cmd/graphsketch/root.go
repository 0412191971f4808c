package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/graphsketch/internal/datasource"
	"github.com/vanderheijden86/graphsketch/pkg/config"
	"github.com/vanderheijden86/graphsketch/pkg/debug"
	"github.com/vanderheijden86/graphsketch/pkg/graph"
	"github.com/vanderheijden86/graphsketch/pkg/metrics"
	"github.com/vanderheijden86/graphsketch/pkg/model"
	"github.com/vanderheijden86/graphsketch/pkg/persist"
	"github.com/vanderheijden86/graphsketch/pkg/version"
)

// app carries the global flags and the loaded config to every command.
type app struct {
	configPath string
	graphFlag  string
	metrics    bool
	cfg        config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "graphsketch [graph]",
		Short: "graphsketch - draw and search graphs in the terminal",
		Long: brand.Sprint("graphsketch") + " - draw graphs with the mouse, run animated BFS/DFS and measure paths\n" +
			subtle.Sprint("A graph is a JSON file, a name from the config, library.db#name or @latest"),
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.metrics {
				metrics.WriteReport(cmd.ErrOrStderr())
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd, args)
		},
	}
	root.SetVersionTemplate("graphsketch {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/graphsketch/config.yaml)")
	root.PersistentFlags().BoolVar(&a.metrics, "metrics", false, "print operation timings on exit")
	root.PersistentFlags().StringVarP(&a.graphFlag, "graph", "g", "", "graph to open: path, registered name, library.db#name or @latest")

	root.AddCommand(
		a.tuiCmd(),
		a.pathCmd(),
		a.searchCmd(),
		a.summaryCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.libraryCmd(),
		a.sourcesCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	debug.Log("cli: config loaded, graph file %s", a.cfg.Storage.GraphFile)
	return nil
}

// locator resolves what the user named: a positional argument beats
// --graph, and a registered graph name is replaced by its path. With
// nothing named the configured default graph file is used.
func (a *app) locator(args []string) string {
	name := a.graphFlag
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		return a.cfg.Storage.GraphFile
	}
	if ref := a.cfg.FindGraph(name); ref != nil {
		return ref.ResolvedPath()
	}
	return name
}

// latestLocator opens the most recently modified valid graph among the
// files next to the default graph and the library slots.
const latestLocator = "@latest"

// openGraph loads the named graph. A file or library slot that does not
// exist yet yields an empty graph with the configured defaults when
// allowMissing is set.
func (a *app) openGraph(ctx context.Context, loc string, allowMissing bool) (*graph.Store, datasource.DataSource, error) {
	if loc == latestLocator {
		return datasource.LoadBest(ctx, datasource.DiscoveryOptions{
			DataDir: filepath.Dir(a.cfg.Storage.GraphFile),
			Library: a.cfg.Storage.Library,
		})
	}
	src := datasource.ParseLocator(loc)
	if src.Type == datasource.SourceTypeFile && !persist.NewFileStore(src.Path).Exists() {
		if !allowMissing {
			return nil, src, fmt.Errorf("%s does not exist", src.Path)
		}
		return a.emptyGraph(), src, nil
	}

	store, opened, err := datasource.Open(ctx, loc)
	if errors.Is(err, persist.ErrGraphNotFound) && allowMissing {
		return a.emptyGraph(), src, nil
	}
	if err != nil {
		return nil, src, err
	}
	return store, opened, nil
}

func (a *app) emptyGraph() *graph.Store {
	return graph.New(graph.WithSettings(a.cfg.Settings()))
}

// writeGraph saves store to the source it names.
func writeGraph(ctx context.Context, src datasource.DataSource, store *graph.Store) error {
	saver, closeFn, err := datasource.Saver(src)
	if err != nil {
		return err
	}
	defer closeFn()
	data, err := persist.Marshal(store)
	if err != nil {
		return err
	}
	return saver.Save(ctx, data)
}

// vertexByLabel looks up a vertex or explains which labels exist.
func vertexByLabel(store *graph.Store, label string) (*model.Vertex, error) {
	if v := store.FindByLabel(label); v != nil {
		return v, nil
	}
	return nil, fmt.Errorf("no vertex labeled %q (have %d vertices)", label, store.Len())
}
