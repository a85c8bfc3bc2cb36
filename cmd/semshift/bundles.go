package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hupe1980/semshift/artifact"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored bundles",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var commitCmd = &cobra.Command{
	Use:   "commit NAME",
	Short: "Make a bundle the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a bundle that is not current",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(listCmd, commitCmd, deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	names, err := a.artifacts.List(ctx)
	if err != nil {
		return err
	}
	current, err := a.artifacts.Current(ctx)
	if err != nil && !errors.Is(err, artifact.ErrNoCurrent) {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range names {
		m, err := a.artifacts.Manifest(ctx, name)
		if err != nil {
			return err
		}
		mark := " "
		if name == current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%d words\t%d dims\t%s\t%s\n",
			mark, name, m.Words, m.Dim, m.Compression, m.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	return a.artifacts.Commit(ctx, args[0])
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	return a.artifacts.Delete(ctx, args[0])
}
