// Package storage defines the capability DittoSync needs from a backend:
// a flat directory of named files that can be listed, created, renamed,
// removed and streamed chunk by chunk.
//
// Backends live in sub-packages (billy, s3, badger). The reconciliation
// engine only ever talks to the interfaces declared here, so any backend
// can serve as source or destination.
package storage

import (
	"context"
	"strings"
)

// ============================================================================
// Open Modes
// ============================================================================

// OpenMode selects how a File stream is opened.
type OpenMode int

const (
	// ModeRead opens the file for sequential reads from the beginning.
	ModeRead OpenMode = iota

	// ModeWrite opens the file for writing, discarding existing content.
	ModeWrite

	// ModeAppend opens the file for writing after existing content.
	ModeAppend
)

// String returns the mode name for logs and error messages.
func (m OpenMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Writable reports whether the mode writes to the file.
func (m OpenMode) Writable() bool {
	return m == ModeWrite || m == ModeAppend
}

// ============================================================================
// Directory Interface
// ============================================================================

// Directory is a named container of files.
//
// Only one directory level is modelled: List returns regular files directly
// inside the directory, and entries that are not regular files (directories,
// symlinks, devices) are skipped.
type Directory interface {
	// Name returns the last component of the directory location.
	Name() string

	// List returns the regular files contained in the directory.
	//
	// The order of the returned slice is backend defined and callers must
	// not rely on it.
	List(ctx context.Context) ([]File, error)

	// Create creates a new empty file named name inside the directory.
	//
	// Returns ErrNameConflict if a file with that name already exists and
	// ErrInvalidName if name is not a single path component.
	Create(ctx context.Context, name string) (File, error)
}

// ============================================================================
// File Interface
// ============================================================================

// File is a handle on one file inside a Directory.
//
// A File carries at most one open stream. Open on an open file fails with
// ErrAlreadyOpen, ReadChunk and WriteChunk on a closed file fail with
// ErrNotOpen. Close on a closed file is a no-op so cleanup paths can call it
// unconditionally.
//
// Rename keeps the identity of the handle: after a successful rename the same
// File value refers to the file under its new name.
//
// A File is not safe for concurrent use.
type File interface {
	// Name returns the current name of the file.
	Name() string

	// Rename renames the file inside its directory.
	//
	// Returns ErrNameConflict if newName is already taken. Rename never
	// overwrites an existing file.
	Rename(ctx context.Context, newName string) error

	// Remove deletes the file. The handle must not be used afterwards.
	Remove(ctx context.Context) error

	// Open opens a stream on the file in the given mode.
	Open(ctx context.Context, mode OpenMode) error

	// Close releases the open stream, flushing pending writes.
	Close() error

	// ReadChunk reads up to max bytes.
	//
	// It returns fewer than max bytes only at end of stream, and an empty
	// slice once the stream is exhausted.
	ReadChunk(max int) ([]byte, error)

	// WriteChunk writes p to the open stream.
	WriteChunk(p []byte) error
}

// ValidateName checks that name is usable as a file name in a flat directory.
//
// Only "/" and NUL are rejected; any other byte is legal in a POSIX name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return &PathError{Op: "validate", Name: name, Err: ErrInvalidName}
	}
	if strings.ContainsAny(name, "/\x00") {
		return &PathError{Op: "validate", Name: name, Err: ErrInvalidName}
	}
	return nil
}
