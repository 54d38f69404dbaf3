package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/dittosync/pkg/storage"
)

// File is a storage.File backed by one S3 object.
type File struct {
	dir  *Directory
	name string

	// Exactly one of body (read mode) and buffer (write modes) is set while
	// the file is open.
	body   io.ReadCloser
	buffer *bytes.Buffer
	ctx    context.Context
}

func (f *File) key() string {
	return f.dir.prefix + f.name
}

func (f *File) keyFor(name string) string {
	return f.dir.prefix + name
}

// Name implements storage.File.
func (f *File) Name() string {
	return f.name
}

// Rename implements storage.File.
func (f *File) Rename(ctx context.Context, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := storage.ValidateName(newName); err != nil {
		return err
	}

	op := f.name + " -> " + newName
	target := f.keyFor(newName)

	exists, err := f.exists(ctx, target)
	if err != nil {
		return storage.IOError("rename", op, err)
	}
	if exists {
		return &storage.PathError{Op: "rename", Name: op, Err: storage.ErrNameConflict}
	}

	_, err = f.dir.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(f.dir.bucket),
		Key:        aws.String(target),
		CopySource: aws.String(copySource(f.dir.bucket, f.key())),
	})
	if err != nil {
		if isNotFound(err) {
			return &storage.PathError{Op: "rename", Name: op, Err: storage.ErrNotFound, Cause: err}
		}
		return storage.IOError("rename", op, err)
	}

	if _, err := f.dir.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.dir.bucket),
		Key:    aws.String(f.key()),
	}); err != nil {
		return storage.IOError("rename", op, fmt.Errorf("copied but failed to delete source: %w", err))
	}

	f.name = newName
	return nil
}

// Remove implements storage.File.
//
// DeleteObject succeeds on missing keys, so existence is checked first to
// report ErrNotFound like the other backends.
func (f *File) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := f.exists(ctx, f.key())
	if err != nil {
		return storage.IOError("remove", f.name, err)
	}
	if !exists {
		return &storage.PathError{Op: "remove", Name: f.name, Err: storage.ErrNotFound}
	}

	_, err = f.dir.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.dir.bucket),
		Key:    aws.String(f.key()),
	})
	if err != nil {
		return storage.IOError("remove", f.name, err)
	}
	return nil
}

// Open implements storage.File.
func (f *File) Open(ctx context.Context, mode storage.OpenMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.body != nil || f.buffer != nil {
		return &storage.PathError{Op: "open", Name: f.name, Err: storage.ErrAlreadyOpen}
	}

	op := "open " + mode.String()
	switch mode {
	case storage.ModeRead:
		body, err := f.get(ctx)
		if err != nil {
			return f.mapGetError(op, err)
		}
		f.body = body

	case storage.ModeWrite, storage.ModeAppend:
		exists, err := f.exists(ctx, f.key())
		if err != nil {
			return storage.IOError(op, f.name, err)
		}
		if !exists {
			return &storage.PathError{Op: op, Name: f.name, Err: storage.ErrNotFound}
		}

		buffer := &bytes.Buffer{}
		if mode == storage.ModeAppend {
			body, err := f.get(ctx)
			if err != nil {
				return f.mapGetError(op, err)
			}
			_, err = io.Copy(buffer, body)
			_ = body.Close()
			if err != nil {
				return storage.IOError(op, f.name, err)
			}
		}
		f.buffer = buffer

	default:
		return &storage.PathError{Op: op, Name: f.name, Err: storage.ErrIO}
	}

	f.ctx = ctx
	return nil
}

// Close implements storage.File.
//
// For write modes this uploads the buffered content.
func (f *File) Close() error {
	switch {
	case f.body != nil:
		body := f.body
		f.body = nil
		f.ctx = nil
		if err := body.Close(); err != nil {
			return storage.IOError("close", f.name, err)
		}
	case f.buffer != nil:
		buffer := f.buffer
		ctx := f.ctx
		f.buffer = nil
		f.ctx = nil
		if err := f.put(ctx, buffer.Bytes()); err != nil {
			return storage.IOError("close", f.name, err)
		}
	}
	return nil
}

// ReadChunk implements storage.File.
func (f *File) ReadChunk(max int) ([]byte, error) {
	if f.body == nil {
		return nil, &storage.PathError{Op: "read", Name: f.name, Err: storage.ErrNotOpen}
	}
	chunk, err := storage.ReadChunk(f.body, max)
	if err != nil {
		return nil, storage.IOError("read", f.name, err)
	}
	return chunk, nil
}

// WriteChunk implements storage.File.
func (f *File) WriteChunk(p []byte) error {
	if f.buffer == nil {
		return &storage.PathError{Op: "write", Name: f.name, Err: storage.ErrNotOpen}
	}
	f.buffer.Write(p)
	return nil
}

// copySource builds the URL-encoded "bucket/key" CopyObject expects,
// keeping the separators.
func copySource(bucket, key string) string {
	segments := strings.Split(bucket+"/"+key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (f *File) exists(ctx context.Context, key string) (bool, error) {
	_, err := f.dir.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.dir.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (f *File) get(ctx context.Context) (io.ReadCloser, error) {
	out, err := f.dir.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.dir.bucket),
		Key:    aws.String(f.key()),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func (f *File) put(ctx context.Context, data []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := f.dir.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.dir.bucket),
		Key:           aws.String(f.key()),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

func (f *File) mapGetError(op string, err error) error {
	if isNotFound(err) {
		return &storage.PathError{Op: op, Name: f.name, Err: storage.ErrNotFound, Cause: err}
	}
	return storage.IOError(op, f.name, err)
}
