package reconcile

import (
	"context"

	"github.com/marmos91/dittosync/pkg/storage"
)

// HashIndex groups files by digest.
//
// Each digest maps to a bucket: the files sharing that digest in insertion
// order. Keys iterate in first-insertion order so a run is deterministic for
// a given listing. Files are removed by identity, never by name or value.
type HashIndex struct {
	buckets map[Digest][]storage.File
	order   []Digest
}

// NewHashIndex returns an empty index.
func NewHashIndex() *HashIndex {
	return &HashIndex{buckets: make(map[Digest][]storage.File)}
}

// BuildIndex digests every file and groups them by digest.
func BuildIndex(ctx context.Context, digester *Digester, files []storage.File) (*HashIndex, error) {
	index := NewHashIndex()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		digest, err := digester.Digest(ctx, f)
		if err != nil {
			return nil, err
		}
		index.Add(digest, f)
	}
	return index, nil
}

// Add appends f to the bucket for digest.
func (x *HashIndex) Add(digest Digest, f storage.File) {
	bucket, ok := x.buckets[digest]
	if !ok {
		x.order = append(x.order, digest)
	}
	x.buckets[digest] = append(bucket, f)
}

// Bucket returns the files under digest. The returned slice must not be
// modified; use Remove.
func (x *HashIndex) Bucket(digest Digest) []storage.File {
	return x.buckets[digest]
}

// Remove drops f from the bucket for digest and drops the bucket once it is
// empty. It reports whether f was present.
func (x *HashIndex) Remove(digest Digest, f storage.File) bool {
	bucket := x.buckets[digest]
	for i, candidate := range bucket {
		if candidate != f {
			continue
		}

		rest := make([]storage.File, 0, len(bucket)-1)
		rest = append(rest, bucket[:i]...)
		rest = append(rest, bucket[i+1:]...)

		if len(rest) == 0 {
			x.drop(digest)
		} else {
			x.buckets[digest] = rest
		}
		return true
	}
	return false
}

func (x *HashIndex) drop(digest Digest) {
	delete(x.buckets, digest)
	for i, d := range x.order {
		if d == digest {
			x.order = append(x.order[:i], x.order[i+1:]...)
			return
		}
	}
}

// Digests returns the keys in first-insertion order.
func (x *HashIndex) Digests() []Digest {
	return append([]Digest(nil), x.order...)
}

// Files returns every file, bucket by bucket, in key order.
func (x *HashIndex) Files() []storage.File {
	var files []storage.File
	for _, digest := range x.order {
		files = append(files, x.buckets[digest]...)
	}
	return files
}

// Len returns the total number of files.
func (x *HashIndex) Len() int {
	n := 0
	for _, bucket := range x.buckets {
		n += len(bucket)
	}
	return n
}

// Empty reports whether the index holds no files.
func (x *HashIndex) Empty() bool {
	return len(x.buckets) == 0
}
