package testing

import (
	"sort"
	"testing"

	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/stretchr/testify/require"
)

// MustCreate creates name in dir with the given content.
func MustCreate(t *testing.T, dir storage.Directory, name string, data []byte) storage.File {
	t.Helper()
	f, err := dir.Create(testContext(), name)
	require.NoError(t, err, "Create %q should succeed", name)
	if len(data) > 0 {
		MustWrite(t, f, storage.ModeAppend, data)
	}
	return f
}

// MustWrite opens f in mode, writes data in one chunk and closes it.
func MustWrite(t *testing.T, f storage.File, mode storage.OpenMode, data []byte) {
	t.Helper()
	err := storage.WithOpen(testContext(), f, mode, func() error {
		return f.WriteChunk(data)
	})
	require.NoError(t, err, "writing %q should succeed", f.Name())
}

// MustRead returns the full content of f.
func MustRead(t *testing.T, f storage.File) []byte {
	t.Helper()
	var out []byte
	err := storage.WithOpen(testContext(), f, storage.ModeRead, func() error {
		for {
			chunk, err := f.ReadChunk(7)
			if err != nil {
				return err
			}
			if len(chunk) == 0 {
				return nil
			}
			out = append(out, chunk...)
		}
	})
	require.NoError(t, err, "reading %q should succeed", f.Name())
	if out == nil {
		out = []byte{}
	}
	return out
}

// MustList returns the files in dir keyed by name.
func MustList(t *testing.T, dir storage.Directory) map[string]storage.File {
	t.Helper()
	files, err := dir.List(testContext())
	require.NoError(t, err, "List should succeed")
	byName := make(map[string]storage.File, len(files))
	for _, f := range files {
		byName[f.Name()] = f
	}
	require.Len(t, byName, len(files), "List returned duplicate names")
	return byName
}

// ListNames returns the sorted names of the files in dir.
func ListNames(t *testing.T, dir storage.Directory) []string {
	t.Helper()
	names := make([]string, 0)
	for name := range MustList(t, dir) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the name -> content view of dir.
func Snapshot(t *testing.T, dir storage.Directory) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for name, f := range MustList(t, dir) {
		out[name] = string(MustRead(t, f))
	}
	return out
}

// Populate creates every name -> content pair of files in dir.
func Populate(t *testing.T, dir storage.Directory, files map[string]string) {
	t.Helper()
	for name, data := range files {
		MustCreate(t, dir, name, []byte(data))
	}
}

// generateTestData creates test data of specified size.
func generateTestData(size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = byte(i % 251)
	}
	return data
}
