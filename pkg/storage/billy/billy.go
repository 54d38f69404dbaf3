// Package billy implements the storage capability on top of go-billy
// filesystems.
//
// Two variants are exposed:
//   - NewOSDirectory: a directory on the local filesystem (osfs)
//   - NewMemoryDirectory: a volatile in-memory directory (memfs)
//
// Any other billy.Filesystem can be plugged in with NewDirectory.
package billy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/marmos91/dittosync/pkg/storage"
)

const rootDir = "/"

// Directory is a flat directory inside a billy.Filesystem.
type Directory struct {
	fs   billy.Filesystem
	dir  string
	name string

	// copyRename makes File.Rename copy then remove instead of calling
	// fs.Rename.
	copyRename bool
}

// NewDirectory returns the directory dir of fsys, labelled name.
func NewDirectory(fsys billy.Filesystem, dir, name string) *Directory {
	if dir == "" {
		dir = rootDir
	}
	return &Directory{fs: fsys, dir: dir, name: name}
}

// NewOSDirectory returns the local directory at path.
//
// The directory must already exist.
func NewOSDirectory(ctx context.Context, path string) (*Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, storage.IOError("resolve", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, mapError("stat", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", abs, storage.ErrInvalidName)
	}

	return NewDirectory(osfs.New(abs), rootDir, filepath.Base(abs)), nil
}

// NewMemoryDirectory returns an empty in-memory directory labelled name.
func NewMemoryDirectory(name string) *Directory {
	fsys := memfs.New()
	// memfs creates parents lazily; make the root listable while empty.
	_ = fsys.MkdirAll(rootDir, 0o755)

	d := NewDirectory(fsys, rootDir, name)
	// memfs.Rename also moves every path that has the old path as a string
	// prefix, so renaming "a" would drag "a.txt" along.
	d.copyRename = true
	return d
}

// Name implements storage.Directory.
func (d *Directory) Name() string {
	return d.name
}

// Filesystem returns the underlying billy filesystem.
func (d *Directory) Filesystem() billy.Filesystem {
	return d.fs
}

// List implements storage.Directory.
func (d *Directory) List(ctx context.Context) ([]storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := d.fs.ReadDir(d.dir)
	if err != nil {
		return nil, mapError("list", d.dir, err)
	}

	files := make([]storage.File, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, d.file(info.Name()))
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
	handle, err := d.fs.OpenFile(f.path(), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, mapError("create", name, err)
	}
	if err := handle.Close(); err != nil {
		return nil, storage.IOError("create", name, err)
	}
	return f, nil
}

func (d *Directory) file(name string) *File {
	return &File{fs: d.fs, dir: d.dir, name: name, copyRename: d.copyRename}
}

// mapError translates billy/os errors into storage sentinels.
func mapError(op, name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &storage.PathError{Op: op, Name: name, Err: storage.ErrNotFound, Cause: err}
	case errors.Is(err, fs.ErrExist):
		return &storage.PathError{Op: op, Name: name, Err: storage.ErrNameConflict, Cause: err}
	default:
		return storage.IOError(op, name, err)
	}
}
