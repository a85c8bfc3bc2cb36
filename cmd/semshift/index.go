package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hupe1980/semshift/internal/config"
	"github.com/hupe1980/semshift/occurrence"
	"github.com/spf13/cobra"
)

var indexLimit int

var indexCmd = &cobra.Command{
	Use:   "index CORPUS OUT",
	Short: "Build the occurrence index of a corpus",
	Long: `Index reads CORPUS line by line, records for every whitespace separated
token the lines it occurs on and writes the index to OUT.`,
	Args: cobra.ExactArgs(2),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&indexLimit, "limit", 0, "Lines kept per word (default: mining.occurrence_limit)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	limit := cfg.Mining.OccurrenceLimit
	if indexLimit > 0 {
		limit = indexLimit
	}

	x, err := buildIndex(cmd, args[0], limit, cfg.Engine.Workers)
	if err != nil {
		return err
	}
	if err := writeIndex(args[1], x); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d words\t%d lines\n", args[1], x.Len(), x.NumLines())
	return nil
}

func buildIndex(cmd *cobra.Command, path string, limit, workers int) (*occurrence.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return occurrence.Build(cmd.Context(), f, func(o *occurrence.Options) {
		o.Limit = limit
		o.Workers = workers
	})
}

func writeIndex(path string, x *occurrence.Index) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := x.WriteTo(w); err != nil {
		return err
	}
	return w.Flush()
}

func readIndex(path string) (*occurrence.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return occurrence.ReadFrom(bufio.NewReader(f))
}
