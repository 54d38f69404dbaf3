package storage

import "errors"

// ============================================================================
// Standard Storage Errors
// ============================================================================

// Backends wrap these errors so callers can test the failure class with
// errors.Is regardless of which backend produced it:
//
//	if err := f.Rename(ctx, "b.txt"); errors.Is(err, storage.ErrNameConflict) {
//	    ...
//	}
//
// Backends should use PathError, which keeps the operation and file name in
// the message while unwrapping to the sentinel and the underlying cause.

var (
	// ErrIO indicates the underlying medium failed an operation
	// (permission denied, disk full, network failure, ...).
	ErrIO = errors.New("storage I/O failure")

	// ErrNameConflict indicates the target name of a rename or create is
	// already taken.
	ErrNameConflict = errors.New("name already exists")

	// ErrNotFound indicates the file or directory does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName indicates a name that is not a single path component.
	ErrInvalidName = errors.New("invalid file name")

	// ErrAlreadyOpen indicates Open was called on a file with an open stream.
	ErrAlreadyOpen = errors.New("file already open")

	// ErrNotOpen indicates a stream operation on a file without an open
	// stream, or a read on a write stream and vice versa.
	ErrNotOpen = errors.New("file not open")

	// ErrReadOnly indicates a mutation attempted through a read-only handle.
	ErrReadOnly = errors.New("storage is read-only")
)

// PathError records a failed operation on a named file.
type PathError struct {
	Op   string
	Name string
	Err  error
	// Cause is the backend error that triggered the failure, if any.
	Cause error
}

func (e *PathError) Error() string {
	msg := e.Op + " " + e.Name + ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the backend cause to errors.Is/As.
func (e *PathError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// IOError wraps a backend failure as an ErrIO PathError.
func IOError(op, name string, cause error) error {
	return &PathError{Op: op, Name: name, Err: ErrIO, Cause: cause}
}
