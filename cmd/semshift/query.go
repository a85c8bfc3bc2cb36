package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/hupe1980/semshift"
	"github.com/hupe1980/semshift/shift"
	"github.com/spf13/cobra"
)

var queryName string

var topCmd = &cobra.Command{
	Use:   "top K",
	Short: "List the K most shifted words",
	Args:  cobra.ExactArgs(1),
	RunE:  runTop,
}

var (
	contextTarget bool
	contextK      int
)

var contextCmd = &cobra.Command{
	Use:   "context WORD",
	Short: "Show the nearest neighbours of a word in the other space",
	Long: `Context looks WORD up among the aligned source vectors and prints its
nearest target words. With --target the direction is reversed.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	for _, c := range []*cobra.Command{topCmd, contextCmd} {
		c.Flags().StringVar(&queryName, "name", "", "Bundle name (default: the committed bundle)")
		rootCmd.AddCommand(c)
	}
	contextCmd.Flags().BoolVar(&contextTarget, "target", false, "Look the word up in the target space")
	contextCmd.Flags().IntVar(&contextK, "k", 10, "Number of neighbours")
}

func runTop(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: K must be an integer", semshift.ErrType)
	}
	k, err := semshift.ParseK(n)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	res, err := a.engine.Load(ctx, a.artifacts, queryName)
	if err != nil {
		return err
	}
	top, err := res.TopShiftedWords(ctx, k)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, ws := range top {
		fmt.Fprintf(w, "%s\t%.4f\n", ws.Word, ws.Shift)
	}
	return w.Flush()
}

func runContext(cmd *cobra.Command, args []string) error {
	k, err := semshift.ParseK(contextK)
	if err != nil {
		return err
	}
	dir := shift.Source
	if contextTarget {
		dir = shift.Target
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	res, err := a.engine.Load(ctx, a.artifacts, queryName)
	if err != nil {
		return err
	}
	n, err := res.Context(ctx, args[0], dir, k)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for i, word := range n.Words {
		fmt.Fprintf(w, "%s\t%.4f\n", word, n.Distances[i])
	}
	return w.Flush()
}
