package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/graphsketch/pkg/persist"
)

var errNoLibrary = errors.New("no library configured; set storage.library or pass --library")

func (a *app) libraryCmd() *cobra.Command {
	var path string
	open := func() (*persist.Library, error) {
		if path == "" {
			path = a.cfg.Storage.Library
		}
		if path == "" {
			return nil, errNoLibrary
		}
		return persist.OpenLibrary(path)
	}

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage named graphs in the SQLite library",
	}
	cmd.PersistentFlags().StringVar(&path, "library", "", "library database (default from config)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open()
			if err != nil {
				return err
			}
			defer lib.Close()
			entries, err := lib.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, subtle.Sprint("No saved graphs in "+lib.Path()))
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				id := e.ID
				if len(id) > 8 {
					id = id[:8]
				}
				rows = append(rows, []string{
					e.Name,
					strconv.Itoa(e.Vertices),
					strconv.Itoa(e.Edges),
					e.UpdatedAt.Local().Format("2006-01-02 15:04"),
					id,
				})
			}
			table(w, []string{"NAME", "VERTICES", "EDGES", "UPDATED", "ID"}, rows)
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Store the current graph under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := a.openGraph(cmd.Context(), a.locator(nil), false)
			if err != nil {
				return err
			}
			lib, err := open()
			if err != nil {
				return err
			}
			defer lib.Close()
			if err := lib.SaveGraph(cmd.Context(), args[0], store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Saved %s (%d vertices)\n", statusIcon(true), args[0], store.Len())
			return nil
		},
	}

	var yes bool
	load := &cobra.Command{
		Use:   "load <name>",
		Short: "Replace the current graph with a saved one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, err := open()
			if err != nil {
				return err
			}
			defer lib.Close()
			saved, err := lib.Load(ctx, args[0])
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
					fmt.Fprintln(cmd.OutOrStdout(), subtle.Sprint("Load cancelled"))
					return nil
				}
			}
			if err := writeGraph(ctx, dst, saved); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Loaded %s into %s\n", statusIcon(true), args[0], dst.Locator())
			return nil
		},
	}
	load.Flags().BoolVarP(&yes, "yes", "y", false, "replace a non-empty graph without asking")

	del := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a saved graph",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open()
			if err != nil {
				return err
			}
			defer lib.Close()
			found, err := lib.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %q", persist.ErrGraphNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", statusIcon(true), args[0])
			return nil
		},
	}

	cmd.AddCommand(list, save, load, del)
	return cmd
}
