package badger

import (
	"context"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dittosync/pkg/storage"
)

// Directory is one namespace inside a BadgerDB store.
type Directory struct {
	db        *badgerdb.DB
	namespace string
	prefix    []byte
}

func (d *Directory) key(name string) []byte {
	key := make([]byte, 0, len(d.prefix)+len(name))
	key = append(key, d.prefix...)
	return append(key, name...)
}

// Name implements storage.Directory.
func (d *Directory) Name() string {
	return d.namespace
}

// List implements storage.Directory.
//
// Files are returned in key order.
func (d *Directory) List(ctx context.Context) ([]storage.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []storage.File
	err := d.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = d.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			name := string(it.Item().Key()[len(d.prefix):])
			files = append(files, &File{dir: d, name: name})
		}
		return nil
	})
	if err != nil {
		return nil, storage.IOError("list", d.namespace, err)
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

	err := d.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(d.key(name)); err == nil {
			return &storage.PathError{Op: "create", Name: name, Err: storage.ErrNameConflict}
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		return txn.Set(d.key(name), []byte{})
	})
	if err != nil {
		return nil, wrapTxnError("create", name, err)
	}
	return &File{dir: d, name: name}, nil
}

// wrapTxnError passes storage errors through and wraps everything else as
// an I/O failure.
func wrapTxnError(op, name string, err error) error {
	var pathErr *storage.PathError
	if errors.As(err, &pathErr) {
		return err
	}
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return &storage.PathError{Op: op, Name: name, Err: storage.ErrNotFound, Cause: err}
	}
	return storage.IOError(op, name, err)
}
