package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Key under which the subscription flag is stored.
const Key = "senpaiSubscription"

// ErrDirRequired is returned when an on-disk store is opened without a directory.
var ErrDirRequired = errors.New("subscription: data directory is required")

// Store persists the subscription flag.
type Store interface {
	// Load returns false when no value was ever saved.
	Load(ctx context.Context) (bool, error)
	Save(ctx context.Context, active bool) error
	Close() error
}

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string
	// InMemory keeps the flag in memory only.
	InMemory bool
	Logger   *slog.Logger
}

// BadgerStore is a Store backed by BadgerDB. The flag is stored as the
// JSON literal true or false.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates the flag store.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, ErrDirRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger: logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("subscription: open store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load implements Store.
func (s *BadgerStore) Load(_ context.Context) (bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("subscription: load: %w", err)
	}

	var active bool
	if err := json.Unmarshal(raw, &active); err != nil {
		return false, fmt.Errorf("subscription: decode %q: %w", raw, err)
	}
	return active, nil
}

// Save implements Store.
func (s *BadgerStore) Save(_ context.Context, active bool) error {
	raw, err := json.Marshal(active)
	if err != nil {
		return fmt.Errorf("subscription: encode: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), raw)
	})
	if err != nil {
		return fmt.Errorf("subscription: save: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger warnings and errors to slog and drops the
// rest.
type badgerLogger struct {
	logger *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(f, v...), slog.String("component", "badger"))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(f, v...), slog.String("component", "badger"))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

var _ Store = (*BadgerStore)(nil)
