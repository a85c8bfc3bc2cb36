package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/semshift/blobstore"
	miniostore "github.com/hupe1980/semshift/blobstore/minio"
	s3store "github.com/hupe1980/semshift/blobstore/s3"
	"github.com/hupe1980/semshift/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	memoryOnce  sync.Once
	memoryStore *blobstore.MemoryStore
)

// sharedMemoryStore lives as long as the process, so commands executed in
// the same process see each other's bundles.
func sharedMemoryStore() *blobstore.MemoryStore {
	memoryOnce.Do(func() { memoryStore = blobstore.NewMemoryStore() })
	return memoryStore
}

func openStore(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	var (
		store blobstore.BlobStore
		err   error
	)
	switch cfg.Type {
	case "local":
		store = blobstore.NewLocalStore(cfg.Local.Root)
	case "memory":
		store = sharedMemoryStore()
	case "s3":
		store, err = openS3(ctx, cfg)
	case "minio":
		store, err = openMinio(cfg)
	default:
		err = fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Blocks == 0 {
		return store, nil
	}
	cached, err := blobstore.NewCachingStore(store, cfg.Cache.Blocks, cfg.Cache.BlockSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func openS3(ctx context.Context, cfg config.StorageConfig) (blobstore.BlobStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store := s3store.NewStore(s3.NewFromConfig(awsCfg), cfg.S3.Bucket, cfg.Prefix)
	if cfg.S3.CommitTable == "" {
		return store, nil
	}

	uri := "s3://" + cfg.S3.Bucket
	if p := strings.Trim(cfg.Prefix, "/"); p != "" {
		uri += "/" + p
	}
	ddb := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.RetryMaxAttempts = 5
	})
	return s3store.NewDDBCommitStore(store, ddb, cfg.S3.CommitTable, uri), nil
}

func openMinio(cfg config.StorageConfig) (blobstore.BlobStore, error) {
	m := cfg.Minio
	client, err := minio.New(m.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv(m.AccessKeyEnv), os.Getenv(m.SecretKeyEnv), ""),
		Secure: m.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return miniostore.NewStore(client, m.Bucket, cfg.Prefix), nil
}
