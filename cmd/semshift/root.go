package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/semshift"
	"github.com/hupe1980/semshift/artifact"
	"github.com/hupe1980/semshift/codec"
	"github.com/hupe1980/semshift/internal/config"
	"github.com/spf13/cobra"
)

// DefaultConfigPath is read when --config is not given.
const DefaultConfigPath = "semshift.yaml"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "semshift",
	Short: "Detect semantic shift between two embedding spaces",
	Long: `semshift aligns word vectors trained on two corpora with an orthogonal
rotation, ranks the words whose vectors moved the most and finds example
sentences that show the change.

Examples:
  semshift index corpus1.txt corpus1.occ
  semshift align --src v1.txt --dst v2.txt --alignment s4.json --commit
  semshift top 20
  semshift context bank --k 10
  semshift sentences bank --src v1.txt --dst v2.txt \
      --src-corpus corpus1.txt --dst-corpus corpus2.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", DefaultConfigPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles what every command needs.
type app struct {
	cfg       *config.AppConfig
	logger    *semshift.Logger
	engine    *semshift.Engine
	artifacts *artifact.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	blobs, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	compression, err := artifact.ParseCompression(cfg.Artifact.Compression)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(cfg.Artifact.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Artifact.Codec)
	}

	store := artifact.NewStore(blobs, func(o *artifact.Options) {
		o.Compression = compression
		o.Codec = c
		o.IOLimitBytesPerSec = cfg.Artifact.IOLimitBytesPerSec
		o.Logger = logger.Logger
	})

	engine := semshift.New(
		semshift.WithLogger(logger),
		semshift.WithSeed(cfg.Engine.Seed),
		semshift.WithWorkers(cfg.Engine.Workers),
	)

	return &app{cfg: cfg, logger: logger, engine: engine, artifacts: store}, nil
}

func newLogger(cfg config.LogConfig) (*semshift.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return semshift.NewLogger(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return semshift.NewLogger(slog.NewTextHandler(os.Stderr, opts)), nil
}
