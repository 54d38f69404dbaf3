package reconcile

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/minio/sha256-simd"
	"lukechampine.com/blake3"

	"github.com/marmos91/dittosync/pkg/storage"
)

// DefaultDigestBlockSize is the read size used while hashing a file.
const DefaultDigestBlockSize = 64 * 1024

// Digest is the hex encoded hash of a file's full content.
//
// Equal digests only make two files candidates for equality; the byte
// comparison in Comparer is what proves it.
type Digest string

// Short returns an abbreviated form for log lines.
func (d Digest) Short() string {
	if len(d) <= 12 {
		return string(d)
	}
	return string(d[:12])
}

// HashFunc constructs a fresh hash accumulator.
type HashFunc func() hash.Hash

// Supported digest algorithms.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmBLAKE3 = "blake3"
	// AlgorithmMD5 gives digests comparable with MD5 checksum manifests.
	AlgorithmMD5    = "md5"
)

// HashFuncFor returns the constructor for a named digest algorithm.
func HashFuncFor(algorithm string) (HashFunc, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmBLAKE3:
		return func() hash.Hash { return blake3.New(32, nil) }, nil
	case AlgorithmMD5:
		return md5.New, nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm: %q (supported: %s, %s, %s)",
			algorithm, AlgorithmSHA256, AlgorithmBLAKE3, AlgorithmMD5)
	}
}

// Digester computes content digests.
type Digester struct {
	newHash   HashFunc
	blockSize int
}

// NewDigester returns a Digester. A nil newHash selects SHA-256 and a
// non-positive blockSize selects DefaultDigestBlockSize.
func NewDigester(newHash HashFunc, blockSize int) *Digester {
	if newHash == nil {
		newHash = sha256.New
	}
	if blockSize <= 0 {
		blockSize = DefaultDigestBlockSize
	}
	return &Digester{newHash: newHash, blockSize: blockSize}
}

// Digest streams f through the hash and returns the finalized digest.
//
// The file is always closed before returning. A read failure is returned in
// preference to a close failure.
func (d *Digester) Digest(ctx context.Context, f storage.File) (Digest, error) {
	h := d.newHash()

	err := storage.WithOpen(ctx, f, storage.ModeRead, func() error {
		for {
			block, err := f.ReadChunk(d.blockSize)
			if err != nil {
				return err
			}
			if len(block) == 0 {
				return nil
			}
			h.Write(block)
		}
	})
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", f.Name(), err)
	}

	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}
