package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/graphsketch/internal/datasource"
)

func (a *app) sourcesCmd() *cobra.Command {
	var (
		dir     string
		diff    bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List graph files and library slots, freshest first",
		Long: "List the JSON graph files next to the default graph and the slots of\n" +
			"the configured library. With --diff, sources sharing a name are compared.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = filepath.Dir(a.cfg.Storage.GraphFile)
			}
			w := cmd.OutOrStdout()
			opts := datasource.DiscoveryOptions{
				DataDir:                dir,
				Library:                a.cfg.Storage.Library,
				ValidateAfterDiscovery: true,
				IncludeInvalid:         true,
				Verbose:                verbose,
			}
			if verbose {
				opts.Logger = func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), subtle.Sprint(msg)) }
			}
			sources, err := datasource.DiscoverSources(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Fprintln(w, subtle.Sprint("No graphs found in "+dir))
				return nil
			}

			rows := make([][]string, 0, len(sources))
			for _, s := range sources {
				note := ""
				if !s.Valid {
					note = s.ValidationError
				}
				rows = append(rows, []string{
					statusIcon(s.Valid),
					s.Locator(),
					string(s.Type),
					strconv.Itoa(s.Vertices),
					strconv.Itoa(s.Edges),
					s.ModTime.Local().Format("2006-01-02 15:04"),
					note,
				})
			}
			table(w, []string{"", "SOURCE", "TYPE", "VERTICES", "EDGES", "MODIFIED", ""}, rows)

			if !diff {
				return nil
			}
			report, err := datasource.GenerateInconsistencyReport(cmd.Context(), sources, datasource.DefaultDiffOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			if len(report.Diffs) == 0 {
				fmt.Fprintln(w, good.Sprint("Sources sharing a name agree"))
				return nil
			}
			fmt.Fprintln(w, bad.Sprintf("%d differences", report.TotalInconsistencies))
			for _, d := range report.Diffs {
				fmt.Fprintln(w, d.Summary())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to scan (default: the default graph's directory)")
	cmd.Flags().BoolVar(&diff, "diff", false, "compare sources that share a name")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log discovery")
	return cmd
}
