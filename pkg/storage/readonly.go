package storage

import "context"

// ReadOnly wraps dir so that no file reachable through it can be modified.
//
// Create, Rename, Remove and write opens fail with ErrReadOnly; listing and
// reading are delegated unchanged.
func ReadOnly(dir Directory) Directory {
	if ro, ok := dir.(*readOnlyDir); ok {
		return ro
	}
	return &readOnlyDir{dir: dir}
}

type readOnlyDir struct {
	dir Directory
}

func (d *readOnlyDir) Name() string {
	return d.dir.Name()
}

func (d *readOnlyDir) List(ctx context.Context) ([]File, error) {
	files, err := d.dir.List(ctx)
	if err != nil {
		return nil, err
	}
	wrapped := make([]File, len(files))
	for i, f := range files {
		wrapped[i] = &readOnlyFile{file: f}
	}
	return wrapped, nil
}

func (d *readOnlyDir) Create(_ context.Context, name string) (File, error) {
	return nil, &PathError{Op: "create", Name: name, Err: ErrReadOnly}
}

type readOnlyFile struct {
	file File
}

func (f *readOnlyFile) Name() string {
	return f.file.Name()
}

func (f *readOnlyFile) Rename(_ context.Context, newName string) error {
	return &PathError{Op: "rename", Name: f.file.Name() + " -> " + newName, Err: ErrReadOnly}
}

func (f *readOnlyFile) Remove(_ context.Context) error {
	return &PathError{Op: "remove", Name: f.file.Name(), Err: ErrReadOnly}
}

func (f *readOnlyFile) Open(ctx context.Context, mode OpenMode) error {
	if mode.Writable() {
		return &PathError{Op: "open " + mode.String(), Name: f.file.Name(), Err: ErrReadOnly}
	}
	return f.file.Open(ctx, mode)
}

func (f *readOnlyFile) Close() error {
	return f.file.Close()
}

func (f *readOnlyFile) ReadChunk(max int) ([]byte, error) {
	return f.file.ReadChunk(max)
}

func (f *readOnlyFile) WriteChunk(_ []byte) error {
	return &PathError{Op: "write", Name: f.file.Name(), Err: ErrReadOnly}
}
