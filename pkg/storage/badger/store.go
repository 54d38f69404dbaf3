// Package badger implements the storage capability on BadgerDB.
//
// One Store (a BadgerDB database) holds any number of directories. Each
// directory is a namespace and each file is one key:
//
//	f:<namespace>\x00<name>  ->  file content
//
// Names never contain NUL (see storage.ValidateName), so the separator is
// unambiguous and a prefix scan over "f:<namespace>\x00" lists exactly one
// directory. Mutations (create, rename, remove) run in a single transaction
// each, so a rename is atomic and its conflict check cannot race.
package badger

import (
	"context"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/storage"
)

const (
	filePrefix = "f:"
	separator  = "\x00"
)

// StoreConfig contains configuration for opening a BadgerDB store.
type StoreConfig struct {
	// DBPath is the directory where BadgerDB keeps its files.
	// Ignored when InMemory is set.
	DBPath string `mapstructure:"db_path"`

	// InMemory keeps the whole database in RAM. Useful for tests.
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// Store is an open BadgerDB database.
type Store struct {
	db   *badgerdb.DB
	path string
}

// Open opens (or creates) the database described by cfg.
func Open(ctx context.Context, cfg StoreConfig) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("badger store: db_path is required")
		}
		opts = badgerdb.DefaultOptions(cfg.DBPath)
	}

	blockCacheMB := cfg.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := cfg.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}

	opts = opts.
		WithLogger(badgerLogger{}).
		WithLoggingLevel(badgerdb.WARNING).
		WithCompression(options.ZSTD).
		WithBlockCacheSize(blockCacheMB << 20).
		WithIndexCacheSize(indexCacheMB << 20)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("Opened BadgerDB store at %q (in_memory=%t)", cfg.DBPath, cfg.InMemory)
	return &Store{db: db, path: cfg.DBPath}, nil
}

// Path returns the database directory ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Directory returns the directory stored under namespace.
//
// Directories need no creation step: an empty namespace lists no files.
func (s *Store) Directory(namespace string) (*Directory, error) {
	if namespace == "" || strings.Contains(namespace, separator) {
		return nil, &storage.PathError{Op: "namespace", Name: namespace, Err: storage.ErrInvalidName}
	}
	return &Directory{
		db:        s.db,
		namespace: namespace,
		prefix:    []byte(filePrefix + namespace + separator),
	}, nil
}

// badgerLogger routes BadgerDB's own log output to the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug("badger: "+strings.TrimSuffix(format, "\n"), args...)
}
