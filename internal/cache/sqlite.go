package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/eventplanner/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache on a local SQLite file.
type SQLiteCache struct {
	db    *sql.DB
	scope string
}

// NewSQLite opens (creating if needed) the cache database at dbPath.
func NewSQLite(dbPath, scope string) (*SQLiteCache, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("cache path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}

	c := &SQLiteCache{db: db, scope: scope}
	if err := c.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS cache_entries (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (scope, key)
	);
	`
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save writes both keys in a single transaction.
func (c *SQLiteCache) Save(ctx context.Context, snap Snapshot) error {
	draft, turns, err := encode(snap)
	if err != nil {
		return err
	}

	return shared.RetryOnConflict(ctx, "cache.save", 3, 50*time.Millisecond, func() error {
		return c.saveOnce(ctx, draft, turns)
	})
}

func (c *SQLiteCache) saveOnce(ctx context.Context, draft, turns []byte) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache save: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			slog.Warn("failed to roll back cache save", "error", rbErr)
		}
	}()

	query := `
	INSERT INTO cache_entries (scope, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(scope, key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, query, c.scope, KeyDraft, string(draft), now); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, c.scope, KeyTurns, string(turns), now); err != nil {
		return fmt.Errorf("save turns: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache save: %w", err)
	}
	return nil
}

// Load returns the last saved snapshot for the scope.
func (c *SQLiteCache) Load(ctx context.Context) (Snapshot, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, value FROM cache_entries WHERE scope = ? AND key IN (?, ?)`,
		c.scope, KeyDraft, KeyTurns)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query cache: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close cache rows", "error", closeErr)
		}
	}()

	var draft, turns []byte
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Snapshot{}, fmt.Errorf("scan cache row: %w", err)
		}
		switch key {
		case KeyDraft:
			draft = []byte(value)
		case KeyTurns:
			turns = []byte(value)
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate cache rows: %w", err)
	}

	return decode(draft, turns), nil
}

// Clear removes both keys for the scope.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	return shared.RetryOnConflict(ctx, "cache.clear", 3, 50*time.Millisecond, func() error {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE scope = ?`, c.scope); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		return nil
	})
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close cache database: %w", err)
	}
	return nil
}
