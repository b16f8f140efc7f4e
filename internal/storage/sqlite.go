package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/LavishGent/routegov/internal/config"
	"github.com/LavishGent/routegov/internal/types"
)

// SQLiteStore is a single-file KeyValueStore.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	closed atomic.Bool
}

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	busy := cfg.BusyTimeout.Milliseconds()
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, busy)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.NewStoreError("Open", "", "sqlite", err)
	}
	// One writer keeps WAL mode free of SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, types.NewStoreError("Open", "", "sqlite", err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		path:   cfg.Path,
		logger: logger.With("component", "sqlite-store"),
	}
	s.logger.Info("SQLite store opened", "path", cfg.Path)
	return s, nil
}

// Name returns the backend name.
func (s *SQLiteStore) Name() string { return "sqlite" }

// IsAvailable returns true until the store is closed.
func (s *SQLiteStore) IsAvailable() bool { return !s.closed.Load() }

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", types.ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", types.ErrNotFound
		}
		return "", types.NewStoreError("Get", key, "sqlite", err)
	}
	return value, nil
}

// Set stores or replaces the value under key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return types.NewStoreError("Set", key, "sqlite", err)
	}
	return nil
}

// Remove deletes key.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return types.NewStoreError("Remove", key, "sqlite", err)
	}
	return nil
}

// Keys lists every key starting with prefix, in key order.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, types.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, types.NewStoreError("Keys", prefix, "sqlite", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, types.NewStoreError("Keys", prefix, "sqlite", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ types.KeyValueStore = (*SQLiteStore)(nil)
