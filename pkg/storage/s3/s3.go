// Package s3 implements the storage capability on Amazon S3 or any
// S3-compatible object store (MinIO, LocalStack, Cubbit DS3, ...).
//
// Key Design:
//   - A Directory is a key prefix inside one bucket ("photos/2024/")
//   - A File is the object "<prefix><name>"
//   - Only direct children are listed (delimiter "/"), matching the single
//     directory level the storage capability models
//
// S3 has no rename and no append, so:
//   - Rename is CopyObject followed by DeleteObject
//   - Writes are buffered in memory and uploaded with PutObject on Close;
//     append mode downloads the existing object first
package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/dittosync/pkg/storage"
)

// Client is the subset of *s3.Client used by this package.
type Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config contains configuration for an S3 directory.
type Config struct {
	// Client is the configured S3 client
	Client Client

	// Bucket is the S3 bucket name
	Bucket string

	// Prefix selects the directory inside the bucket.
	// Example: "backups/photos" lists objects "backups/photos/<name>".
	// Empty means the bucket root.
	Prefix string
}

// Directory is a key prefix inside an S3 bucket.
type Directory struct {
	client Client
	bucket string
	prefix string
}

// NewDirectory creates an S3 directory and verifies bucket access.
//
// The bucket must already exist; this function does not create it.
func NewDirectory(ctx context.Context, cfg Config) (*Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &Directory{
		client: cfg.Client,
		bucket: cfg.Bucket,
		prefix: normalizePrefix(cfg.Prefix),
	}, nil
}

// normalizePrefix strips leading slashes and guarantees a trailing one.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Name implements storage.Directory.
//
// The bucket root is named after the bucket.
func (d *Directory) Name() string {
	if d.prefix == "" {
		return d.bucket
	}
	return path.Base(d.prefix)
}

// List implements storage.Directory.
func (d *Directory) List(ctx context.Context) ([]storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []storage.File

	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(d.bucket),
		Prefix:    aws.String(d.prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.IOError("list", d.bucket+"/"+d.prefix, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, d.prefix)
			// Skip "directory" marker objects.
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			files = append(files, d.file(name))
		}
	}

	return files, nil
}

// Create implements storage.Directory.
func (d *Directory) Create(ctx context.Context, name string) (storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	f := d.file(name)
	exists, err := f.exists(ctx, f.key())
	if err != nil {
		return nil, storage.IOError("create", name, err)
	}
	if exists {
		return nil, &storage.PathError{Op: "create", Name: name, Err: storage.ErrNameConflict}
	}

	if err := f.put(ctx, nil); err != nil {
		return nil, storage.IOError("create", name, err)
	}
	return f, nil
}

func (d *Directory) file(name string) *File {
	return &File{dir: d, name: name}
}

// isNotFound reports whether err is an S3 "no such object" error.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
