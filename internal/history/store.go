package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/iwvelando/weight-balance/internal/config"
	"github.com/iwvelando/weight-balance/pkg/optimization"
)

const (
	recordPrefix = "rec\x00"
	keySeparator = "\x00"
)

// Config holds the BadgerDB settings of a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps every record in memory only.
	InMemory bool

	// SyncWrites fsyncs each write before returning.
	SyncWrites bool

	// Logger receives BadgerDB's own log output. Nil silences it.
	Logger *zap.Logger
}

// DefaultConfig returns durable settings for a database at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns settings for a throwaway database.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// ConfigFromStore converts the store section of the configuration.
func ConfigFromStore(c config.StoreConfig, logger *zap.Logger) Config {
	return Config{
		Path:       c.Path,
		InMemory:   c.InMemory,
		SyncWrites: c.SyncWrites,
		Logger:     logger,
	}
}

// badgerLogger adapts zap to BadgerDB's logger interface.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

// Store persists optimization records in BadgerDB. Values are msgpack
// encoded under keys ordered by pattern and creation time.
type Store struct {
	db     *badger.DB
	closed atomic.Bool
	now    func() time.Time
}

// Open opens or creates the database described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("history path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: cfg.Logger.Named("badger").Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func patternPrefix(pattern string) []byte {
	return []byte(recordPrefix + pattern + keySeparator)
}

func recordKey(rec optimization.Record) []byte {
	return []byte(fmt.Sprintf("%s%s%s%020d%s%s",
		recordPrefix, rec.Pattern, keySeparator, rec.CreatedAt.UnixNano(), keySeparator, rec.ID))
}

// patternFromKey extracts the pattern name from a record key.
func patternFromKey(key []byte) string {
	rest := strings.TrimPrefix(string(key), recordPrefix)
	name, _, _ := strings.Cut(rest, keySeparator)
	return name
}

// Record stores rec, assigning an ID and creation time when missing.
func (s *Store) Record(ctx context.Context, rec optimization.Record) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rec = prepare(rec, s.now)
	if strings.Contains(rec.Pattern, keySeparator) {
		return fmt.Errorf("pattern name %q contains a NUL byte", rec.Pattern)
	}

	value, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec), value)
	}); err != nil {
		return fmt.Errorf("store record %s: %w", rec.ID, err)
	}
	return nil
}

// List implements Reader.
func (s *Store) List(ctx context.Context, pattern string) ([]optimization.Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	prefix := []byte(recordPrefix)
	if pattern != "" {
		prefix = patternPrefix(pattern)
	}

	out := []optimization.Record{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var rec optimization.Record
			if err := item.Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode record %q: %w", item.Key(), err)
			}
			rec.CreatedAt = rec.CreatedAt.UTC()
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		chronological(out)
	}
	return out, nil
}

// Patterns implements Reader.
func (s *Store) Patterns(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	out := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := patternFromKey(it.Item().Key())
			if len(out) == 0 || out[len(out)-1] != name {
				out = append(out, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.db.Close()
}
