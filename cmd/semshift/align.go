package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/semshift"
	"github.com/hupe1980/semshift/align"
	"github.com/hupe1980/semshift/internal/config"
	"github.com/hupe1980/semshift/wordvec"
	"github.com/spf13/cobra"
)

var (
	alignSrc    string
	alignDst    string
	alignConfig string
	alignName   string
	alignCommit bool
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align two embedding spaces and store the result",
	Long: `Align reads two word vector files in text format, fits an orthogonal
rotation of the source space onto the target space and stores the aligned
vectors, the rotation and the per-word shifts as a bundle.

The alignment file is JSON of the form
  {"alignment_type": "global" | "noise-aware" | "s4", "args": {...}}
Without --alignment a global alignment over the whole vocabulary is used.`,
	Args: cobra.NoArgs,
	RunE: runAlign,
}

func init() {
	alignCmd.Flags().StringVar(&alignSrc, "src", "", "Source vector file (required)")
	alignCmd.Flags().StringVar(&alignDst, "dst", "", "Target vector file (required)")
	alignCmd.Flags().StringVar(&alignConfig, "alignment", "", "Alignment config file (JSON)")
	alignCmd.Flags().StringVar(&alignName, "name", "", "Bundle name (default: random UUID)")
	alignCmd.Flags().BoolVar(&alignCommit, "commit", false, "Make the bundle the current one")
	_ = alignCmd.MarkFlagRequired("src")
	_ = alignCmd.MarkFlagRequired("dst")
	rootCmd.AddCommand(alignCmd)
}

func runAlign(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	if err := checkDistinct(alignSrc, alignDst); err != nil {
		return err
	}
	cfg, err := readAlignConfig(alignConfig)
	if err != nil {
		return err
	}
	src, err := loadVectors(alignSrc, a.cfg.Engine)
	if err != nil {
		return err
	}
	dst, err := loadVectors(alignDst, a.cfg.Engine)
	if err != nil {
		return err
	}

	res, err := a.engine.Align(ctx, src, dst, cfg)
	if err != nil {
		return err
	}
	bundle, err := res.ToBundle(alignName)
	if err != nil {
		return err
	}
	name, err := a.artifacts.Save(ctx, bundle)
	if err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}
	if alignCommit {
		if err := a.artifacts.Commit(ctx, name); err != nil {
			return fmt.Errorf("commit bundle: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d words\t%d dims\n", name, res.Len(), res.Dim())
	return nil
}

// checkDistinct rejects aligning a vector file with itself, including
// through a link or another path to the same file.
func checkDistinct(src, dst string) error {
	a, err := os.Stat(src)
	if err != nil {
		return err
	}
	b, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if os.SameFile(a, b) {
		return fmt.Errorf("%w: --src and --dst are the same file", semshift.ErrInvalidRequest)
	}
	return nil
}

func readAlignConfig(path string) (align.Config, error) {
	if path == "" {
		return align.Global{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return align.ParseConfig(data)
}

func loadVectors(path string, cfg config.EngineConfig) (*wordvec.Space, error) {
	s, err := wordvec.LoadFile(path, func(o *wordvec.Options) {
		o.Center = cfg.Center == nil || *cfg.Center
		o.Normalize = cfg.Normalize
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}
