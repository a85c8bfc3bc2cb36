// Package config loads the YAML configuration of the semshift CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig configures a LocalStore.
type LocalConfig struct {
	Root string `yaml:"root"`
}

// S3Config configures an S3 store and the optional DynamoDB commit table.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`

	// CommitTable enables DynamoDB-backed commits when set.
	CommitTable string `yaml:"commit_table"`
}

// MinioConfig configures a MinIO store. Credentials are read from the
// environment variables named here.
type MinioConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Secure       bool   `yaml:"secure"`
}

// CacheConfig configures the block cache placed in front of remote stores.
// Blocks == 0 disables it.
type CacheConfig struct {
	Blocks    int   `yaml:"blocks"`
	BlockSize int64 `yaml:"block_size"`
}

// StorageConfig selects where artifacts live.
type StorageConfig struct {
	Type   string       `yaml:"type"`
	Prefix string       `yaml:"prefix"`
	Local  LocalConfig  `yaml:"local"`
	S3     *S3Config    `yaml:"s3,omitempty"`
	Minio  *MinioConfig `yaml:"minio,omitempty"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ArtifactConfig configures how bundles are encoded.
type ArtifactConfig struct {
	Compression        string `yaml:"compression"`
	Codec              string `yaml:"codec"`
	IOLimitBytesPerSec int64  `yaml:"io_limit_bytes_per_sec"`
}

// EngineConfig configures alignment runs.
type EngineConfig struct {
	Seed    uint64 `yaml:"seed"`
	Workers int    `yaml:"workers"`

	// Center subtracts the column mean when loading vector files.
	Center *bool `yaml:"center,omitempty"`

	// Normalize scales loaded vectors to unit length.
	Normalize bool `yaml:"normalize"`
}

// MiningConfig configures occurrence indices and line lookup.
type MiningConfig struct {
	OccurrenceLimit int `yaml:"occurrence_limit"`
	LineCacheSize   int `yaml:"line_cache_size"`
	MaxSentences    int `yaml:"max_sentences"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Storage  StorageConfig  `yaml:"storage"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Engine   EngineConfig   `yaml:"engine"`
	Mining   MiningConfig   `yaml:"mining"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads a config from path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration: local storage under ./runs.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.Local.Root == "" {
		cfg.Storage.Local.Root = "runs"
	}
	if cfg.Storage.Cache.Blocks > 0 && cfg.Storage.Cache.BlockSize == 0 {
		cfg.Storage.Cache.BlockSize = 64 * 1024
	}
	if m := cfg.Storage.Minio; m != nil {
		if m.AccessKeyEnv == "" {
			m.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if m.SecretKeyEnv == "" {
			m.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
	}
	if cfg.Artifact.Compression == "" {
		cfg.Artifact.Compression = "zstd"
	}
	if cfg.Artifact.Codec == "" {
		cfg.Artifact.Codec = "json"
	}
	if cfg.Engine.Center == nil {
		center := true
		cfg.Engine.Center = &center
	}
	if cfg.Mining.OccurrenceLimit == 0 {
		cfg.Mining.OccurrenceLimit = 10000
	}
	if cfg.Mining.LineCacheSize == 0 {
		cfg.Mining.LineCacheSize = 4096
	}
	if cfg.Mining.MaxSentences == 0 {
		cfg.Mining.MaxSentences = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate reports settings that cannot work together.
func (c *AppConfig) Validate() error {
	switch c.Storage.Type {
	case "local", "memory":
	case "s3":
		if c.Storage.S3 == nil || c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required")
		}
	case "minio":
		if c.Storage.Minio == nil || c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return errors.New("storage.minio.endpoint and storage.minio.bucket are required")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	switch c.Artifact.Compression {
	case "none", "lz4", "zstd":
	default:
		return fmt.Errorf("unknown compression %q", c.Artifact.Compression)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Mining.OccurrenceLimit < 0 || c.Mining.LineCacheSize < 0 || c.Mining.MaxSentences < 0 {
		return errors.New("mining settings must not be negative")
	}
	if c.Storage.Cache.Blocks < 0 {
		return errors.New("storage.cache.blocks must not be negative")
	}
	return nil
}
