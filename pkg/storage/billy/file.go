package billy

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/marmos91/dittosync/pkg/storage"
)

// File is a storage.File backed by a path in a billy.Filesystem.
type File struct {
	fs   billy.Filesystem
	dir  string
	name string

	stream billy.File
	mode   storage.OpenMode

	copyRename bool
}

func (f *File) path() string {
	return f.fs.Join(f.dir, f.name)
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

	target := f.fs.Join(f.dir, newName)
	// billy follows rename(2) and would replace the target silently.
	if _, err := f.fs.Lstat(target); err == nil {
		return &storage.PathError{Op: "rename", Name: f.name + " -> " + newName, Err: storage.ErrNameConflict}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return storage.IOError("rename", newName, err)
	}

	rename := f.fs.Rename
	if f.copyRename {
		rename = f.moveByCopy
	}
	if err := rename(f.path(), target); err != nil {
		return mapError("rename", f.name+" -> "+newName, err)
	}
	f.name = newName
	return nil
}

// moveByCopy renames from to to by copying the content and removing from.
func (f *File) moveByCopy(from, to string) (err error) {
	src, err := f.fs.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := f.fs.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = f.fs.Remove(to)
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return f.fs.Remove(from)
}

// Remove implements storage.File.
func (f *File) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.fs.Remove(f.path()); err != nil {
		return mapError("remove", f.name, err)
	}
	return nil
}

// Open implements storage.File.
func (f *File) Open(ctx context.Context, mode storage.OpenMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.stream != nil {
		return &storage.PathError{Op: "open", Name: f.name, Err: storage.ErrAlreadyOpen}
	}

	var (
		stream billy.File
		err    error
	)
	switch mode {
	case storage.ModeRead:
		stream, err = f.fs.Open(f.path())
	case storage.ModeWrite:
		stream, err = f.fs.OpenFile(f.path(), os.O_WRONLY|os.O_TRUNC, 0)
	case storage.ModeAppend:
		stream, err = f.fs.OpenFile(f.path(), os.O_WRONLY|os.O_APPEND, 0)
	default:
		return &storage.PathError{Op: "open " + mode.String(), Name: f.name, Err: storage.ErrIO}
	}
	if err != nil {
		return mapError("open "+mode.String(), f.name, err)
	}

	f.stream = stream
	f.mode = mode
	return nil
}

// Close implements storage.File.
func (f *File) Close() error {
	if f.stream == nil {
		return nil
	}
	stream := f.stream
	f.stream = nil
	if err := stream.Close(); err != nil {
		return storage.IOError("close", f.name, err)
	}
	return nil
}

// ReadChunk implements storage.File.
func (f *File) ReadChunk(max int) ([]byte, error) {
	if f.stream == nil || f.mode != storage.ModeRead {
		return nil, &storage.PathError{Op: "read", Name: f.name, Err: storage.ErrNotOpen}
	}
	chunk, err := storage.ReadChunk(f.stream, max)
	if err != nil {
		return nil, storage.IOError("read", f.name, err)
	}
	return chunk, nil
}

// WriteChunk implements storage.File.
func (f *File) WriteChunk(p []byte) error {
	if f.stream == nil || !f.mode.Writable() {
		return &storage.PathError{Op: "write", Name: f.name, Err: storage.ErrNotOpen}
	}
	n, err := f.stream.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return storage.IOError("write", f.name, err)
	}
	return nil
}
