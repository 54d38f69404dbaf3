package badger

import (
	"bytes"
	"context"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittosync/pkg/storage"
)

// File is a storage.File stored as a single BadgerDB value.
//
// A read stream works on a snapshot of the value taken at Open. A write
// stream buffers in memory and commits the value on Close.
type File struct {
	dir  *Directory
	name string

	reader *bytes.Reader
	buffer *bytes.Buffer
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

	op := f.name + " -> " + newName
	oldKey, newKey := f.dir.key(f.name), f.dir.key(newName)

	err := f.dir.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(oldKey)
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		if _, err := txn.Get(newKey); err == nil {
			return &storage.PathError{Op: "rename", Name: op, Err: storage.ErrNameConflict}
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(newKey, value); err != nil {
			return err
		}
		return txn.Delete(oldKey)
	})
	if err != nil {
		return wrapTxnError("rename", op, err)
	}

	f.name = newName
	return nil
}

// Remove implements storage.File.
func (f *File) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := f.dir.key(f.name)
	err := f.dir.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return wrapTxnError("remove", f.name, err)
	}
	return nil
}

// Open implements storage.File.
func (f *File) Open(ctx context.Context, mode storage.OpenMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.reader != nil || f.buffer != nil {
		return &storage.PathError{Op: "open", Name: f.name, Err: storage.ErrAlreadyOpen}
	}

	op := "open " + mode.String()
	if mode != storage.ModeRead && !mode.Writable() {
		return &storage.PathError{Op: op, Name: f.name, Err: storage.ErrIO}
	}

	value, err := f.load()
	if err != nil {
		return wrapTxnError(op, f.name, err)
	}

	switch mode {
	case storage.ModeRead:
		f.reader = bytes.NewReader(value)
	case storage.ModeWrite:
		f.buffer = &bytes.Buffer{}
	case storage.ModeAppend:
		f.buffer = bytes.NewBuffer(value)
	}
	return nil
}

func (f *File) load() ([]byte, error) {
	var value []byte
	err := f.dir.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(f.dir.key(f.name))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// Close implements storage.File.
func (f *File) Close() error {
	if f.reader != nil {
		f.reader = nil
		return nil
	}
	if f.buffer == nil {
		return nil
	}

	value := f.buffer.Bytes()
	f.buffer = nil
	err := f.dir.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(f.dir.key(f.name), value)
	})
	if err != nil {
		return storage.IOError("close", f.name, err)
	}
	return nil
}

// ReadChunk implements storage.File.
func (f *File) ReadChunk(max int) ([]byte, error) {
	if f.reader == nil {
		return nil, &storage.PathError{Op: "read", Name: f.name, Err: storage.ErrNotOpen}
	}
	chunk, err := storage.ReadChunk(f.reader, max)
	if err != nil {
		return nil, storage.IOError("read", f.name, err)
	}
	return chunk, nil
}

// WriteChunk implements storage.File.
func (f *File) WriteChunk(p []byte) error {
	if f.buffer == nil {
		return &storage.PathError{Op: "write", Name: f.name, Err: storage.ErrNotOpen}
	}
	f.buffer.Write(p)
	return nil
}
