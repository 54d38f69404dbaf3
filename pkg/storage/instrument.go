package storage

import (
	"context"
	"time"
)

// Observer receives timing and volume of storage operations.
//
// operation is one of "list", "create", "rename", "remove", "open", "close",
// "read" and "write".
type Observer interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	RecordBytes(operation string, bytes int64)
}

// Instrument wraps dir so every operation is reported to obs.
// A nil obs returns dir unchanged.
func Instrument(dir Directory, obs Observer) Directory {
	if obs == nil {
		return dir
	}
	return &instrumentedDir{dir: dir, obs: obs}
}

type instrumentedDir struct {
	dir Directory
	obs Observer
}

func (d *instrumentedDir) Name() string {
	return d.dir.Name()
}

func (d *instrumentedDir) List(ctx context.Context) ([]File, error) {
	start := time.Now()
	files, err := d.dir.List(ctx)
	d.obs.ObserveOperation("list", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	wrapped := make([]File, len(files))
	for i, f := range files {
		wrapped[i] = &instrumentedFile{file: f, obs: d.obs}
	}
	return wrapped, nil
}

func (d *instrumentedDir) Create(ctx context.Context, name string) (File, error) {
	start := time.Now()
	f, err := d.dir.Create(ctx, name)
	d.obs.ObserveOperation("create", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &instrumentedFile{file: f, obs: d.obs}, nil
}

type instrumentedFile struct {
	file File
	obs  Observer
}

func (f *instrumentedFile) observe(operation string, start time.Time, err error) {
	f.obs.ObserveOperation(operation, time.Since(start), err)
}

func (f *instrumentedFile) Name() string {
	return f.file.Name()
}

func (f *instrumentedFile) Rename(ctx context.Context, newName string) error {
	start := time.Now()
	err := f.file.Rename(ctx, newName)
	f.observe("rename", start, err)
	return err
}

func (f *instrumentedFile) Remove(ctx context.Context) error {
	start := time.Now()
	err := f.file.Remove(ctx)
	f.observe("remove", start, err)
	return err
}

func (f *instrumentedFile) Open(ctx context.Context, mode OpenMode) error {
	start := time.Now()
	err := f.file.Open(ctx, mode)
	f.observe("open", start, err)
	return err
}

func (f *instrumentedFile) Close() error {
	start := time.Now()
	err := f.file.Close()
	f.observe("close", start, err)
	return err
}

func (f *instrumentedFile) ReadChunk(max int) ([]byte, error) {
	start := time.Now()
	chunk, err := f.file.ReadChunk(max)
	f.observe("read", start, err)
	if err == nil {
		f.obs.RecordBytes("read", int64(len(chunk)))
	}
	return chunk, err
}

func (f *instrumentedFile) WriteChunk(p []byte) error {
	start := time.Now()
	err := f.file.WriteChunk(p)
	f.observe("write", start, err)
	if err == nil {
		f.obs.RecordBytes("write", int64(len(p)))
	}
	return err
}
