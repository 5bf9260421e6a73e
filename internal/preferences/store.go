// Package preferences is the shell's opaque key/value store. Values are JSON
// documents kept in the SQLite preferences table.
package preferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
)

// Well-known keys
const (
	KeyLastURL = "lastUrl"
)

// Store reads and writes preference values
type Store interface {
	// Get decodes the value stored under key into dst. A missing key yields an
	// error for which errors.IsNotFound is true.
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any) error
}

// LastURL is the document stored under KeyLastURL
type LastURL struct {
	URL string `json:"url"`
}

// SQLiteStore implements Store over a *sql.DB migrated by the database package
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
	retry  *shellerrors.RetryConfig
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store; the preferences table must already exist
func NewSQLiteStore(db *sql.DB, logger logging.Logger) *SQLiteStore {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteStore{
		db:     db,
		logger: logger,
		retry:  shellerrors.DefaultRetryConfig(),
	}
}

func (s *SQLiteStore) Get(ctx context.Context, key string, dst any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return shellerrors.HandleNotFound("preferences.Get", "preference", key)
		}
		return shellerrors.WrapStorageError("preferences.Get", err, map[string]string{"key": key})
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return shellerrors.NewWithContext("preferences.Get", fmt.Errorf("decode value: %w", err),
			shellerrors.ErrCodeCorruption, map[string]string{"key": key})
	}
	return nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return shellerrors.HandleValidationError("preferences.Set", key, fmt.Sprintf("%T", value), err.Error())
	}

	start := time.Now()
	err = shellerrors.WithRetry(ctx, s.retry, s.logger, "preferences.Set", func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(encoded))
		return shellerrors.WrapStorageError("preferences.Set", execErr, map[string]string{"key": key})
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Preference stored", "key", key, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// GetAsync performs Get off the caller's goroutine and hands the outcome to done.
// It mirrors the callback-style lookup the URL decision waits on.
func GetAsync(ctx context.Context, store Store, key string, dst any, done func(error)) {
	go func() {
		done(store.Get(ctx, key, dst))
	}()
}

// MemoryStore is an in-process Store used by tests and as the fallback when
// the database cannot be opened. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	// GetErr, when set, is returned by every Get
	GetErr error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string, dst any) error {
	if m.GetErr != nil {
		return m.GetErr
	}
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return shellerrors.HandleNotFound("preferences.Get", "preference", key)
	}
	return json.Unmarshal(raw, dst)
}

func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = encoded
	m.mu.Unlock()
	return nil
}

// Has reports whether key was ever set
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.values[key]
	return ok
}
