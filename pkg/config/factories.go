package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/storage"
	storageBadger "github.com/marmos91/dittosync/pkg/storage/badger"
	storageBilly "github.com/marmos91/dittosync/pkg/storage/billy"
	storageS3 "github.com/marmos91/dittosync/pkg/storage/s3"
)

// inMemoryBadgerKey identifies the shared in-memory BadgerDB instance.
const inMemoryBadgerKey = ":memory:"

// Backends creates storage directories from configuration and owns the
// resources they hold (open BadgerDB stores, in-memory filesystems).
//
// A single Backends is used for both sides of a run so the source and the
// destination can share one database or one in-memory filesystem.
// Call Close once the run is over.
type Backends struct {
	mu     sync.Mutex
	badger map[string]*storageBadger.Store
	memory map[string]*storageBilly.Directory

	// newS3Client is replaceable in tests.
	newS3Client func(ctx context.Context, opts S3Options) (storageS3.Client, error)
}

// NewBackends returns an empty Backends.
func NewBackends() *Backends {
	return &Backends{
		badger:      make(map[string]*storageBadger.Store),
		memory:      make(map[string]*storageBilly.Directory),
		newS3Client: newS3Client,
	}
}

// CreateDirectory creates the directory at location on the backend selected
// by cfg.Type.
//
// The meaning of location depends on the backend:
//   - "filesystem": a directory path
//   - "memory": a label; equal labels share one in-memory directory
//   - "s3": a key prefix, joined to the configured s3.prefix
//   - "badger": a namespace inside the configured database
func (b *Backends) CreateDirectory(ctx context.Context, cfg *StoreConfig, location string) (storage.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch NormalizeBackend(cfg.Type) {
	case "filesystem":
		return createFilesystemDirectory(ctx, cfg.Filesystem, location)
	case "memory":
		return b.createMemoryDirectory(location), nil
	case "s3":
		return b.createS3Directory(ctx, cfg.S3, location)
	case "badger":
		return b.createBadgerDirectory(ctx, cfg.Badger, location)
	default:
		return nil, fmt.Errorf("unknown backend type: %q (supported: filesystem, memory, s3, badger)", cfg.Type)
	}
}

// Close releases every resource opened by CreateDirectory.
func (b *Backends) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for key, store := range b.badger {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close badger store %s: %w", key, err))
		}
		delete(b.badger, key)
	}
	clear(b.memory)
	return errors.Join(errs...)
}

// decodeOptions decodes a backend section into out, accepting string values
// for numbers and booleans as they arrive from environment variables.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// FilesystemOptions configures the local filesystem backend.
type FilesystemOptions struct {
	// Create makes a missing directory (and its parents) instead of failing.
	Create bool `mapstructure:"create"`
}

// createFilesystemDirectory opens a local directory.
func createFilesystemDirectory(ctx context.Context, options map[string]any, location string) (storage.Directory, error) {
	var opts FilesystemOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem options: %w", err)
	}

	if location == "" {
		return nil, fmt.Errorf("filesystem backend: path is required")
	}

	if opts.Create {
		if err := os.MkdirAll(location, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", location, err)
		}
	}

	dir, err := storageBilly.NewOSDirectory(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to open filesystem directory: %w", err)
	}
	return dir, nil
}

// createMemoryDirectory returns the in-memory directory labelled location.
func (b *Backends) createMemoryDirectory(location string) storage.Directory {
	b.mu.Lock()
	defer b.mu.Unlock()

	if dir, ok := b.memory[location]; ok {
		return dir
	}
	dir := storageBilly.NewMemoryDirectory(location)
	b.memory[location] = dir
	return dir
}

// S3Options configures the S3 backend.
type S3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`

	// UsePathStyle forces path-style addressing. Always on when Endpoint
	// is set (MinIO, LocalStack).
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// createS3Directory creates an S3-backed directory.
func (b *Backends) createS3Directory(ctx context.Context, options map[string]any, location string) (storage.Directory, error) {
	var opts S3Options
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 options: %w", err)
	}

	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 backend: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("S3 backend: region is required")
	}

	client, err := b.newS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}

	prefix := path.Join(opts.Prefix, location)
	dir, err := storageS3.NewDirectory(ctx, storageS3.Config{
		Client: client,
		Bucket: opts.Bucket,
		Prefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 directory: %w", err)
	}

	logger.Info("S3 directory initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, prefix)

	return dir, nil
}

// newS3Client builds an S3 client from opts.
func newS3Client(ctx context.Context, opts S3Options) (storageS3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Set credentials if provided, otherwise use default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
		if opts.UsePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// createBadgerDirectory opens (or reuses) a BadgerDB store and returns the
// namespace location inside it.
func (b *Backends) createBadgerDirectory(ctx context.Context, options map[string]any, location string) (storage.Directory, error) {
	var opts storageBadger.StoreConfig
	if err := decodeOptions(options, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode badger options: %w", err)
	}

	if opts.DBPath == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger backend: db_path is required")
	}

	key := opts.DBPath
	if opts.InMemory {
		key = inMemoryBadgerKey
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	store, ok := b.badger[key]
	if !ok {
		var err error
		store, err = storageBadger.Open(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		b.badger[key] = store
	}

	dir, err := store.Directory(location)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}
	return dir, nil
}
