package storage

import (
	"context"
	"errors"
	"io"
)

// WithOpen opens f in mode, runs fn and closes f.
//
// f is closed on every path. When fn fails, its error is returned and any
// close error is dropped; when fn succeeds, the close error is returned.
func WithOpen(ctx context.Context, f File, mode OpenMode, fn func() error) (err error) {
	if err := f.Open(ctx, mode); err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn()
}

// ReadChunk reads up to max bytes from r.
//
// Unlike a single Read it keeps reading until max bytes are collected or r is
// exhausted, which gives backends the File.ReadChunk contract for free: a
// short chunk only happens at end of stream.
func ReadChunk(r io.Reader, max int) ([]byte, error) {
	if max <= 0 {
		return []byte{}, nil
	}
	buf := make([]byte, max)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return buf[:n], nil
	default:
		return nil, err
	}
}
