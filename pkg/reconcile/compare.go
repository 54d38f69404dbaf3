package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittosync/pkg/storage"
)

// DefaultCompareChunkSize is the read size used by Comparer.
const DefaultCompareChunkSize = 4 * 1024

// Comparer checks two files for byte-for-byte equality.
type Comparer struct {
	chunkSize int
}

// NewComparer returns a Comparer reading chunkSize bytes per step.
// A non-positive chunkSize selects DefaultCompareChunkSize.
func NewComparer(chunkSize int) *Comparer {
	if chunkSize <= 0 {
		chunkSize = DefaultCompareChunkSize
	}
	return &Comparer{chunkSize: chunkSize}
}

// Equal reports whether a and b hold the same bytes.
//
// Both files are read in lockstep with the same chunk size, so a length
// difference shows up as an empty chunk on one side facing a non-empty one
// on the other. Both files are closed on every path.
func (c *Comparer) Equal(ctx context.Context, a, b storage.File) (equal bool, err error) {
	err = storage.WithOpen(ctx, a, storage.ModeRead, func() error {
		return storage.WithOpen(ctx, b, storage.ModeRead, func() error {
			for {
				chunkA, err := a.ReadChunk(c.chunkSize)
				if err != nil {
					return err
				}
				chunkB, err := b.ReadChunk(c.chunkSize)
				if err != nil {
					return err
				}

				if !bytes.Equal(chunkA, chunkB) {
					return errDiffer
				}
				if len(chunkA) == 0 {
					equal = true
					return nil
				}
			}
		})
	})

	if errors.Is(err, errDiffer) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare %s with %s: %w", a.Name(), b.Name(), err)
	}
	return equal, nil
}

// errDiffer ends the lockstep read early; it never leaves Equal.
var errDiffer = errors.New("content differs")
