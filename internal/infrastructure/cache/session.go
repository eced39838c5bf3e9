package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/affilifind/backend/internal/domain"
)

// SessionCache is the session cache tier backed by badger. An in-memory
// database is ephemeral and dies with the process; an on-disk database
// survives restarts.
type SessionCache struct {
	db        *badger.DB
	ephemeral bool
}

// NewSessionCache opens a session tier. An empty dir selects an in-memory database.
func NewSessionCache(dir string) (*SessionCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open session cache: %v", domain.ErrStorage, err)
	}
	return &SessionCache{db: db, ephemeral: dir == ""}, nil
}

// Get retrieves a value from the session tier
func (c *SessionCache) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorage, key, err)
	}
	return value, nil
}

// Set stores value under key. A positive ttl lets badger expire the entry.
func (c *SessionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry([]byte(key), value)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// Delete removes key from the session tier
func (c *SessionCache) Delete(ctx context.Context, key string) error {
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrStorage, key, err)
	}
	return nil
}

// DeletePrefix drops every key starting with prefix
func (c *SessionCache) DeletePrefix(ctx context.Context, prefix string) error {
	if err := c.db.DropPrefix([]byte(prefix)); err != nil {
		return fmt.Errorf("%w: drop prefix %s: %v", domain.ErrStorage, prefix, err)
	}
	return nil
}

// Ephemeral reports whether the tier is in-memory only
func (c *SessionCache) Ephemeral() bool {
	return c.ephemeral
}

// Close flushes and closes the database
func (c *SessionCache) Close() error {
	return c.db.Close()
}

// badgerLogger routes badger's internal logging through slog
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	slog.Error(badgerMessage(format, args), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	slog.Warn(badgerMessage(format, args), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	slog.Debug(badgerMessage(format, args), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	slog.Debug(badgerMessage(format, args), "component", "badger")
}

func badgerMessage(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
