package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/graphsketch/pkg/analysis"
	"github.com/vanderheijden86/graphsketch/pkg/interaction"
	"github.com/vanderheijden86/graphsketch/pkg/model"
	"github.com/vanderheijden86/graphsketch/pkg/traversal"
)

type pathOutput struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Distance int      `json:"distance"`
	Path     []string `json:"path"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) pathCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Print the fewest-edges path between two vertices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := a.openGraph(cmd.Context(), a.locator(nil), false)
			if err != nil {
				return err
			}
			from, err := vertexByLabel(store, args[0])
			if err != nil {
				return err
			}
			to, err := vertexByLabel(store, args[1])
			if err != nil {
				return err
			}

			hop := traversal.ShortestHopPath(store.AdjacencyList(), from, to)
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, pathOutput{From: from.Label, To: to.Label, Distance: hop.Distance, Path: model.Labels(hop.Path)})
			}
			if !hop.Reachable() {
				return fmt.Errorf("no path between %s and %s", from.Label, to.Label)
			}
			fmt.Fprintf(w, "%s %s\n", interaction.FormatPath(hop.Path), subtle.Sprintf("(distance %d)", hop.Distance))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		algo    string
		rootL   string
		targetL string
		animate bool
		delay   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "search --target <label>",
		Short: "Run BFS or DFS from a root to a target",
		Long: "Run BFS or DFS from a root to a target and print the visit order.\n" +
			"The root defaults to the topmost vertex, as in the editor.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if algo == "" {
				algo = a.cfg.Traversal.Algorithm
			}
			kind, err := traversal.ParseKind(algo)
			if err != nil {
				return err
			}
			store, _, err := a.openGraph(cmd.Context(), a.locator(nil), false)
			if err != nil {
				return err
			}
			target, err := vertexByLabel(store, targetL)
			if err != nil {
				return err
			}
			root := store.FindTopmost()
			if rootL != "" {
				if root, err = vertexByLabel(store, rootL); err != nil {
					return err
				}
			}
			if animate && !cmd.Flags().Changed("delay") {
				delay = a.cfg.StepDelay()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w := cmd.OutOrStdout()
			visits := 0
			final, err := traversal.Walk(ctx, kind, store.AdjacencyList(), root, target, delay, func(st traversal.Step) {
				if st.Vertex == nil {
					return
				}
				visits++
				if animate {
					fmt.Fprintf(w, "  %s %s\n", subtle.Sprintf("%3d", visits), st.Vertex.Label)
				}
			})
			if err != nil {
				return err
			}

			if final.Result != traversal.Found {
				return fmt.Errorf("%s: %s not reachable from %s", kind, target.Label, root.Label)
			}
			fmt.Fprintf(w, "%s found %s: %s %s\n", info.Sprint(kind), target.Label,
				interaction.FormatPath(final.Path), subtle.Sprintf("(%d visited)", visits))
			return nil
		},
	}
	cmd.Flags().StringVar(&algo, "algo", "", "bfs or dfs (default from config)")
	cmd.Flags().StringVar(&rootL, "root", "", "root vertex label (default: topmost vertex)")
	cmd.Flags().StringVar(&targetL, "target", "", "target vertex label")
	cmd.Flags().BoolVar(&animate, "animate", false, "print each visit, paced by the step delay")
	cmd.Flags().DurationVar(&delay, "delay", 0, "pause between steps")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	var asJSON, full bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Describe the structure of a graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, src, err := a.openGraph(cmd.Context(), a.locator(nil), false)
			if err != nil {
				return err
			}
			cfg := analysis.FastConfig()
			if full {
				cfg = analysis.DefaultConfig()
				if a.cfg.Analysis.SkipCentrality {
					cfg.ComputeCentrality = false
					cfg.SkipReason = "disabled in config"
				}
			}
			sum := analysis.Summarize(store, cfg)

			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, sum)
			}
			printSummary(w, src.Locator(), sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&full, "full", false, "include cores and centrality")
	return cmd
}

func printSummary(w io.Writer, name string, s analysis.Summary) {
	fmt.Fprintln(w, brand.Sprint(name))
	row := func(k string, v any) {
		fmt.Fprintf(w, "  %s  %v\n", info.Sprintf("%-12s", k), v)
	}
	row("vertices", s.Vertices)
	row("edges", s.Edges)
	row("components", len(s.Components))
	row("density", fmt.Sprintf("%.3f", s.Density))
	row("max degree", s.MaxDegree)
	row("avg degree", fmt.Sprintf("%.2f", s.AvgDegree))
	row("cyclic", s.Cyclic)
	if s.DirectedEdges > 0 {
		row("DAG", s.DirectedAcyclic)
	}
	if len(s.Isolated) > 0 {
		row("isolated", strings.Join(s.Isolated, " "))
	}
	if len(s.Articulation) > 0 {
		row("cut", strings.Join(s.Articulation, " "))
	}
	if s.MaxCore > 0 {
		row("max core", s.MaxCore)
	}
	if s.CentralityStatus == analysis.StatusComputed && len(s.PageRank) > 0 {
		fmt.Fprintln(w, brand.Sprint("PageRank"))
		for _, r := range analysis.Top(s.PageRank, 5) {
			row(r.Label, fmt.Sprintf("%.3f", r.Score))
		}
	} else if s.CentralityComment != "" {
		fmt.Fprintln(w, subtle.Sprint("  centrality: "+s.CentralityComment))
	}
}
