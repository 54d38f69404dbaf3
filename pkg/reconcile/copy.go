package reconcile

import (
	"context"
	"fmt"

	"github.com/marmos91/dittosync/internal/ratelimiter"
	"github.com/marmos91/dittosync/pkg/storage"
)

// DefaultCopyChunkSize is the transfer size used by Copier.
const DefaultCopyChunkSize = 4 * 1024

// Copier streams the content of one file into another.
type Copier struct {
	chunkSize int
	limiter   *ratelimiter.Limiter
}

// NewCopier returns a Copier moving chunkSize bytes per step.
// A non-positive chunkSize selects DefaultCopyChunkSize.
func NewCopier(chunkSize int) *Copier {
	if chunkSize <= 0 {
		chunkSize = DefaultCopyChunkSize
	}
	return &Copier{chunkSize: chunkSize}
}

// WithBandwidthLimit caps the copy rate at bytesPerSecond.
// A non-positive value removes the cap.
func (c *Copier) WithBandwidthLimit(bytesPerSecond int64) *Copier {
	c.limiter = ratelimiter.New(bytesPerSecond)
	return c
}

// Copy appends the full content of src to dst and returns the number of
// bytes moved. Both files are closed on every path.
func (c *Copier) Copy(ctx context.Context, src, dst storage.File) (int64, error) {
	var copied int64

	err := storage.WithOpen(ctx, src, storage.ModeRead, func() error {
		return storage.WithOpen(ctx, dst, storage.ModeAppend, func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}

				chunk, err := src.ReadChunk(c.chunkSize)
				if err != nil {
					return err
				}
				if len(chunk) == 0 {
					return nil
				}
				if err := c.limiter.WaitN(ctx, len(chunk)); err != nil {
					return err
				}
				if err := dst.WriteChunk(chunk); err != nil {
					return err
				}
				copied += int64(len(chunk))
			}
		})
	})
	if err != nil {
		return copied, fmt.Errorf("copy %s to %s: %w", src.Name(), dst.Name(), err)
	}
	return copied, nil
}
