package main

import (
	"fmt"
	"io"

	"github.com/hupe1980/semshift"
	"github.com/hupe1980/semshift/sentences"
	"github.com/spf13/cobra"
)

var (
	sentSrcVectors string
	sentDstVectors string
	sentSrcCorpus  string
	sentDstCorpus  string
	sentSrcIndex   string
	sentDstIndex   string
	sentRandom     bool
	sentMax        int
	sentName       string
)

var sentencesCmd = &cobra.Command{
	Use:   "sentences WORD",
	Short: "Find example sentences that contrast a word across corpora",
	Long: `Sentences embeds every corpus line containing WORD as the sum of its word
vectors, rotates the source lines into the target space and prints the least
similar line pairs. With --random one source line is drawn at random and
paired with its least similar target lines.

Occurrence indices are read from --src-index/--dst-index when given and
built on the fly otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runSentences,
}

func init() {
	f := sentencesCmd.Flags()
	f.StringVar(&sentSrcVectors, "src", "", "Source vector file (required)")
	f.StringVar(&sentDstVectors, "dst", "", "Target vector file (required)")
	f.StringVar(&sentSrcCorpus, "src-corpus", "", "Source corpus (required)")
	f.StringVar(&sentDstCorpus, "dst-corpus", "", "Target corpus (required)")
	f.StringVar(&sentSrcIndex, "src-index", "", "Source occurrence index")
	f.StringVar(&sentDstIndex, "dst-index", "", "Target occurrence index")
	f.BoolVar(&sentRandom, "random", false, "Pair one random source line with its least similar target lines")
	f.IntVar(&sentMax, "max", 0, "Maximum number of pairs (default: mining.max_sentences)")
	f.StringVar(&sentName, "name", "", "Bundle name (default: the committed bundle)")
	for _, name := range []string{"src", "dst", "src-corpus", "dst-corpus"} {
		_ = sentencesCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(sentencesCmd)
}

func runSentences(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	res, err := a.engine.Load(ctx, a.artifacts, sentName)
	if err != nil {
		return err
	}

	src, err := openCorpus(cmd, a, sentSrcVectors, sentSrcCorpus, sentSrcIndex)
	if err != nil {
		return fmt.Errorf("source corpus: %w", err)
	}
	dst, err := openCorpus(cmd, a, sentDstVectors, sentDstCorpus, sentDstIndex)
	if err != nil {
		return fmt.Errorf("target corpus: %w", err)
	}

	m, err := res.Miner(src, dst)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	word := args[0]
	if sentRandom {
		anchored, err := m.RandomAnchor(ctx, word)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%d] %s\n", anchored.Anchor.Number, anchored.Anchor.Text)
		for _, match := range anchored.Matches {
			fmt.Fprintf(out, "  %.4f\t[%d] %s\n", match.Similarity, match.Line.Number, match.Line.Text)
		}
		return nil
	}

	maxSent := a.cfg.Mining.MaxSentences
	if cmd.Flags().Changed("max") {
		if maxSent, err = semshift.ParseK(sentMax); err != nil {
			return err
		}
	}
	pairs, err := m.DissimilarPairs(ctx, word, maxSent)
	if err != nil {
		return err
	}
	printPairs(out, pairs)
	return nil
}

func printPairs(w io.Writer, pairs []sentences.Pair) {
	for i, p := range pairs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%.4f\n  < [%d] %s\n  > [%d] %s\n",
			p.Similarity, p.Source.Number, p.Source.Text, p.Target.Number, p.Target.Text)
	}
}

func openCorpus(cmd *cobra.Command, a *app, vectors, corpus, index string) (sentences.Corpus, error) {
	space, err := loadVectors(vectors, a.cfg.Engine)
	if err != nil {
		return sentences.Corpus{}, err
	}
	lines, err := sentences.NewFileLines(corpus, func(o *sentences.FileLinesOptions) {
		o.CacheSize = a.cfg.Mining.LineCacheSize
	})
	if err != nil {
		return sentences.Corpus{}, err
	}

	if index == "" {
		x, err := buildIndex(cmd, corpus, a.cfg.Mining.OccurrenceLimit, a.cfg.Engine.Workers)
		if err != nil {
			return sentences.Corpus{}, err
		}
		return sentences.Corpus{Occurrences: x, Lines: lines, Space: space}, nil
	}

	x, err := readIndex(index)
	if err != nil {
		return sentences.Corpus{}, fmt.Errorf("read index %s: %w", index, err)
	}
	return sentences.Corpus{Occurrences: x, Lines: lines, Space: space}, nil
}
