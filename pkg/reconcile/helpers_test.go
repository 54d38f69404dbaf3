package reconcile

import (
	"context"
	"fmt"
	"hash"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittosync/pkg/storage"
	storagebilly "github.com/marmos91/dittosync/pkg/storage/billy"
	storagetesting "github.com/marmos91/dittosync/pkg/storage/testing"
)

// newDir returns an in-memory directory holding files.
func newDir(t *testing.T, name string, files map[string]string) *storagebilly.Directory {
	t.Helper()
	dir := storagebilly.NewMemoryDirectory(name)
	storagetesting.Populate(t, dir, files)
	return dir
}

// listSorted lists dir ordered by name.
func listSorted(t *testing.T, dir storage.Directory) []storage.File {
	t.Helper()
	files, err := dir.List(context.Background())
	require.NoError(t, err)
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	return files
}

// pick returns the files of dir with the given names, in that order.
func pick(t *testing.T, dir storage.Directory, names ...string) []storage.File {
	t.Helper()
	byName := storagetesting.MustList(t, dir)
	files := make([]storage.File, 0, len(names))
	for _, name := range names {
		f, ok := byName[name]
		require.True(t, ok, "missing file %q", name)
		files = append(files, f)
	}
	return files
}

// constantHash gives every input the same digest, forcing all files into
// one bucket.
type constantHash struct{}

func newConstantHash() hash.Hash { return constantHash{} }

func (constantHash) Write(p []byte) (int, error) { return len(p), nil }
func (constantHash) Sum(b []byte) []byte         { return append(b, 0x42) }
func (constantHash) Reset()                      {}
func (constantHash) Size() int                   { return 1 }
func (constantHash) BlockSize() int              { return 1 }

// probeDir wraps a directory so tests can count operations and inject
// failures per file name and operation.
type probeDir struct {
	storage.Directory

	mu      sync.Mutex
	failOn  map[string]map[string]bool // file name -> ops
	files   []*probeFile
	creates int
}

func newProbeDir(dir storage.Directory) *probeDir {
	return &probeDir{Directory: dir, failOn: make(map[string]map[string]bool)}
}

// fail makes ops on the file called name return an I/O error.
func (d *probeDir) fail(name string, ops ...string) {
	if d.failOn[name] == nil {
		d.failOn[name] = make(map[string]bool)
	}
	for _, op := range ops {
		d.failOn[name][op] = true
	}
}

func (d *probeDir) wrap(f storage.File) *probeFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &probeFile{File: f, dir: d}
	d.files = append(d.files, p)
	return p
}

func (d *probeDir) List(ctx context.Context) ([]storage.File, error) {
	files, err := d.Directory.List(ctx)
	if err != nil {
		return nil, err
	}
	wrapped := make([]storage.File, len(files))
	for i, f := range files {
		wrapped[i] = d.wrap(f)
	}
	return wrapped, nil
}

func (d *probeDir) Create(ctx context.Context, name string) (storage.File, error) {
	if d.failOn[name]["create"] {
		return nil, storage.IOError("create", name, fmt.Errorf("injected"))
	}
	f, err := d.Directory.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	d.creates++
	return d.wrap(f), nil
}

// written is the total of bytes written through any wrapped file.
func (d *probeDir) written() int {
	total := 0
	for _, f := range d.files {
		total += f.written
	}
	return total
}

// leaked lists wrapped files opened more often than closed.
func (d *probeDir) leaked() []string {
	var names []string
	for _, f := range d.files {
		if f.opens != f.closes {
			names = append(names, f.Name())
		}
	}
	return names
}

type probeFile struct {
	storage.File
	dir *probeDir

	opens, closes int
	written       int
	open          bool
}

func (f *probeFile) injected(op string) error {
	if f.dir.failOn[f.Name()][op] {
		return storage.IOError(op, f.Name(), fmt.Errorf("injected"))
	}
	return nil
}

func (f *probeFile) Open(ctx context.Context, mode storage.OpenMode) error {
	if err := f.injected("open"); err != nil {
		return err
	}
	if err := f.File.Open(ctx, mode); err != nil {
		return err
	}
	f.opens++
	f.open = true
	return nil
}

func (f *probeFile) Close() error {
	if f.open {
		f.closes++
		f.open = false
	}
	err := f.File.Close()
	if err == nil {
		err = f.injected("close")
	}
	return err
}

func (f *probeFile) ReadChunk(max int) ([]byte, error) {
	if err := f.injected("read"); err != nil {
		return nil, err
	}
	return f.File.ReadChunk(max)
}

func (f *probeFile) WriteChunk(p []byte) error {
	if err := f.injected("write"); err != nil {
		return err
	}
	if err := f.File.WriteChunk(p); err != nil {
		return err
	}
	f.written += len(p)
	return nil
}

func (f *probeFile) Rename(ctx context.Context, newName string) error {
	if err := f.injected("rename"); err != nil {
		return err
	}
	return f.File.Rename(ctx, newName)
}

func (f *probeFile) Remove(ctx context.Context) error {
	if err := f.injected("remove"); err != nil {
		return err
	}
	return f.File.Remove(ctx)
}

// recordingMetrics is a Metrics implementation that keeps counts.
type recordingMetrics struct {
	actions map[Action]int
	bytes   int64
	phases  []string
	runs    int
	lastErr error
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{actions: make(map[Action]int)}
}

func (m *recordingMetrics) RecordAction(action Action)    { m.actions[action]++ }
func (m *recordingMetrics) RecordBytesCopied(bytes int64) { m.bytes += bytes }
func (m *recordingMetrics) ObservePhase(phase string, _ time.Duration) {
	m.phases = append(m.phases, phase)
}
func (m *recordingMetrics) ObserveSync(_ time.Duration, err error) {
	m.runs++
	m.lastErr = err
}
