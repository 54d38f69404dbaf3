package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	storageS3 "github.com/marmos91/dittosync/pkg/storage/s3"
)

func TestCreateDirectory_Filesystem(t *testing.T) {
	b := NewBackends()
	defer func() { _ = b.Close() }()

	dir := t.TempDir()
	cfg := &StoreConfig{Type: "filesystem"}

	d, err := b.CreateDirectory(context.Background(), cfg, dir)
	if err != nil {
		t.Fatalf("Failed to create filesystem directory: %v", err)
	}
	if d.Name() != filepath.Base(dir) {
		t.Errorf("Expected name %q, got %q", filepath.Base(dir), d.Name())
	}
}

func TestCreateDirectory_FilesystemMissingPath(t *testing.T) {
	b := NewBackends()
	_, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "filesystem"}, "")
	if err == nil {
		t.Fatal("Expected error for missing path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateDirectory_FilesystemMissingDirectory(t *testing.T) {
	b := NewBackends()
	missing := filepath.Join(t.TempDir(), "nope")

	if _, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "filesystem"}, missing); err == nil {
		t.Fatal("Expected error for a directory that does not exist")
	}

	cfg := &StoreConfig{Type: "filesystem", Filesystem: map[string]any{"create": "true"}}
	if _, err := b.CreateDirectory(context.Background(), cfg, missing); err != nil {
		t.Fatalf("Expected create option to make the directory: %v", err)
	}
	if info, err := os.Stat(missing); err != nil || !info.IsDir() {
		t.Errorf("Expected %s to exist as a directory", missing)
	}
}

func TestCreateDirectory_LegacyIndex(t *testing.T) {
	b := NewBackends()
	if _, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "0"}, t.TempDir()); err != nil {
		t.Fatalf("Expected legacy index 0 to select the filesystem backend: %v", err)
	}
}

func TestCreateDirectory_MemorySharesLabel(t *testing.T) {
	b := NewBackends()
	ctx := context.Background()
	cfg := &StoreConfig{Type: "memory"}

	first, err := b.CreateDirectory(ctx, cfg, "scratch")
	if err != nil {
		t.Fatalf("Failed to create memory directory: %v", err)
	}
	if _, err := first.Create(ctx, "a.txt"); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	second, err := b.CreateDirectory(ctx, cfg, "scratch")
	if err != nil {
		t.Fatalf("Failed to create memory directory: %v", err)
	}
	files, err := second.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "a.txt" {
		t.Errorf("Expected shared directory with a.txt, got %d files", len(files))
	}

	other, err := b.CreateDirectory(ctx, cfg, "other")
	if err != nil {
		t.Fatalf("Failed to create memory directory: %v", err)
	}
	if files, _ := other.List(ctx); len(files) != 0 {
		t.Errorf("Expected a different label to be empty, got %d files", len(files))
	}
}

func TestCreateDirectory_BadgerSharesStore(t *testing.T) {
	b := NewBackends()
	ctx := context.Background()
	cfg := &StoreConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "db")},
	}

	src, err := b.CreateDirectory(ctx, cfg, "src")
	if err != nil {
		t.Fatalf("Failed to create badger directory: %v", err)
	}
	dst, err := b.CreateDirectory(ctx, cfg, "dst")
	if err != nil {
		t.Fatalf("Failed to create second badger directory on the same store: %v", err)
	}
	if src.Name() != "src" || dst.Name() != "dst" {
		t.Errorf("Unexpected names %q, %q", src.Name(), dst.Name())
	}
	if len(b.badger) != 1 {
		t.Errorf("Expected one open store, got %d", len(b.badger))
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(b.badger) != 0 {
		t.Error("Expected Close to release the stores")
	}
}

func TestCreateDirectory_BadgerMissingPath(t *testing.T) {
	b := NewBackends()
	_, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "badger"}, "ns")
	if err == nil || !strings.Contains(err.Error(), "db_path is required") {
		t.Errorf("Expected 'db_path is required' error, got: %v", err)
	}
}

// headBucketClient answers HeadBucket and nothing else.
type headBucketClient struct {
	storageS3.Client
	err error
}

func (c *headBucketClient) HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &awss3.HeadBucketOutput{}, nil
}

func TestCreateDirectory_S3(t *testing.T) {
	b := NewBackends()
	var got S3Options
	b.newS3Client = func(ctx context.Context, opts S3Options) (storageS3.Client, error) {
		got = opts
		return &headBucketClient{}, nil
	}

	cfg := &StoreConfig{
		Type: "s3",
		S3: map[string]any{
			"bucket":      "photos",
			"region":      "eu-west-1",
			"prefix":      "archive",
			"endpoint":    "http://localhost:4566",
			"max_retries": "3",
		},
	}

	d, err := b.CreateDirectory(context.Background(), cfg, "2024")
	if err != nil {
		t.Fatalf("Failed to create S3 directory: %v", err)
	}
	if d.Name() != "2024" {
		t.Errorf("Expected name '2024', got %q", d.Name())
	}
	if got.Bucket != "photos" || got.Region != "eu-west-1" || got.MaxRetries != 3 {
		t.Errorf("Options not decoded: %+v", got)
	}
}

func TestCreateDirectory_S3Errors(t *testing.T) {
	b := NewBackends()
	b.newS3Client = func(ctx context.Context, opts S3Options) (storageS3.Client, error) {
		return &headBucketClient{err: errors.New("access denied")}, nil
	}

	_, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}, "")
	if err == nil || !strings.Contains(err.Error(), "bucket is required") {
		t.Errorf("Expected 'bucket is required' error, got: %v", err)
	}

	cfg := &StoreConfig{Type: "s3", S3: map[string]any{"bucket": "b", "region": "us-east-1"}}
	_, err = b.CreateDirectory(context.Background(), cfg, "")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Expected bucket access error, got: %v", err)
	}
}

func TestCreateDirectory_UnknownType(t *testing.T) {
	b := NewBackends()
	_, err := b.CreateDirectory(context.Background(), &StoreConfig{Type: "ftp"}, "x")
	if err == nil {
		t.Fatal("Expected error for unknown backend type")
	}
	if !strings.Contains(err.Error(), "unknown backend type") {
		t.Errorf("Expected 'unknown backend type' error, got: %v", err)
	}
}

func TestCreateDirectory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackends().CreateDirectory(ctx, &StoreConfig{Type: "memory"}, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
