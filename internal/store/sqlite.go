package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/eventplanner/internal/domain"
	"github.com/ashureev/eventplanner/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	retryAttempts  = 3
	retryBaseDelay = 100 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_sessions (
		user_id TEXT NOT NULL,
		chat_session_id TEXT NOT NULL,
		event_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, chat_session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated ON chat_sessions(updated_at);

	CREATE TABLE IF NOT EXISTS chat_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		chat_session_id TEXT NOT NULL,
		chat_type TEXT NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_entries_session ON chat_entries(user_id, chat_session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSession records rec and its chat history.
func (s *SQLiteStore) CreateSession(ctx context.Context, rec *domain.SessionRecord) error {
	eventJSON, err := json.Marshal(rec.EventData)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return s.write(ctx, "store.create_session", func(tx *sql.Tx) error {
		query := `
		INSERT INTO chat_sessions (user_id, chat_session_id, event_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, chat_session_id) DO UPDATE SET
			event_json = excluded.event_json,
			updated_at = excluded.updated_at`
		if _, err := tx.ExecContext(ctx, query,
			rec.UserID, rec.ChatSessionID, string(eventJSON), ts.UnixMilli(), ts.UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		for _, e := range rec.ChatHistory {
			if err := insertEntry(ctx, tx, rec.UserID, rec.ChatSessionID, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendEntry adds entry to an existing session.
func (s *SQLiteStore) AppendEntry(ctx context.Context, userID, chatSessionID string, entry domain.ChatEntry) error {
	return s.write(ctx, "store.append_entry", func(tx *sql.Tx) error {
		ts := entry.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		result, err := tx.ExecContext(ctx,
			`UPDATE chat_sessions SET updated_at = ? WHERE user_id = ? AND chat_session_id = ?`,
			ts.UnixMilli(), userID, chatSessionID)
		if err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		return insertEntry(ctx, tx, userID, chatSessionID, entry)
	})
}

func insertEntry(ctx context.Context, tx *sql.Tx, userID, chatSessionID string, e domain.ChatEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	chatType := e.ChatType
	if chatType == "" {
		chatType = domain.ChatTypeFollowUp
	}
	query := `
	INSERT INTO chat_entries (user_id, chat_session_id, chat_type, prompt, response, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		userID, chatSessionID, string(chatType), e.Prompt, e.Response, ts.UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetSession retrieves one session with its history.
func (s *SQLiteStore) GetSession(ctx context.Context, userID, chatSessionID string) (*domain.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_json, created_at FROM chat_sessions
		WHERE user_id = ? AND chat_session_id = ?`, userID, chatSessionID)

	var eventJSON string
	var createdAt int64
	err := row.Scan(&eventJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	rec := &domain.SessionRecord{
		ChatSessionID: chatSessionID,
		UserID:        userID,
		Timestamp:     time.UnixMilli(createdAt).UTC(),
		ChatHistory:   []domain.ChatEntry{},
	}
	if err := json.Unmarshal([]byte(eventJSON), &rec.EventData); err != nil {
		slog.Warn("Unreadable event data", "user_id", userID, "chat_session_id", chatSessionID, "error", err)
	}

	entries, err := s.entries(ctx, `WHERE user_id = ? AND chat_session_id = ?`, userID, chatSessionID)
	if err != nil {
		return nil, err
	}
	rec.ChatHistory = append(rec.ChatHistory, entries[chatSessionID]...)
	return rec, nil
}

// ListSessions retrieves every session of userID, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_session_id, event_json, created_at FROM chat_sessions
		WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close sessions rows", "error", closeErr)
		}
	}()

	records := []domain.SessionRecord{}
	for rows.Next() {
		var id, eventJSON string
		var createdAt int64
		if err := rows.Scan(&id, &eventJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		rec := domain.SessionRecord{
			ChatSessionID: id,
			UserID:        userID,
			Timestamp:     time.UnixMilli(createdAt).UTC(),
			ChatHistory:   []domain.ChatEntry{},
		}
		if err := json.Unmarshal([]byte(eventJSON), &rec.EventData); err != nil {
			slog.Warn("Unreadable event data", "user_id", userID, "chat_session_id", id, "error", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	entries, err := s.entries(ctx, `WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].ChatHistory = append(records[i].ChatHistory, entries[records[i].ChatSessionID]...)
	}
	return records, nil
}

// entries loads chat entries matching where, grouped by session id in insertion order.
func (s *SQLiteStore) entries(ctx context.Context, where string, args ...any) (map[string][]domain.ChatEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_session_id, chat_type, prompt, response, created_at
		FROM chat_entries `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close entries rows", "error", closeErr)
		}
	}()

	out := make(map[string][]domain.ChatEntry)
	for rows.Next() {
		var id, chatType string
		var e domain.ChatEntry
		var createdAt int64
		if err := rows.Scan(&id, &chatType, &e.Prompt, &e.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		e.ChatType = domain.ChatType(chatType)
		e.Timestamp = time.UnixMilli(createdAt).UTC()
		out[id] = append(out[id], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// DeleteSession removes a session and its history.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, chatSessionID string) error {
	return s.write(ctx, "store.delete_session", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM chat_sessions WHERE user_id = ? AND chat_session_id = ?`, userID, chatSessionID)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chat_entries WHERE user_id = ? AND chat_session_id = ?`, userID, chatSessionID); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		return nil
	})
}

// DeleteExpiredSessions removes sessions not updated within maxAge.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) ([]SessionRef, error) {
	threshold := time.Now().Add(-maxAge).UnixMilli()

	var deleted []SessionRef
	err := s.write(ctx, "store.delete_expired", func(tx *sql.Tx) error {
		deleted = nil
		rows, err := tx.QueryContext(ctx,
			`SELECT user_id, chat_session_id FROM chat_sessions WHERE updated_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("query expired sessions: %w", err)
		}
		for rows.Next() {
			var ref SessionRef
			if err := rows.Scan(&ref.UserID, &ref.ChatSessionID); err != nil {
				_ = rows.Close()
				return fmt.Errorf("scan expired session row: %w", err)
			}
			deleted = append(deleted, ref)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close expired sessions rows: %w", err)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate expired sessions: %w", err)
		}

		for _, ref := range deleted {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM chat_entries WHERE user_id = ? AND chat_session_id = ?`, ref.UserID, ref.ChatSessionID); err != nil {
				return fmt.Errorf("delete expired entries: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, threshold); err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// write runs fn in a transaction, retrying on SQLite lock conflicts.
func (s *SQLiteStore) write(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return shared.RetryOnConflict(ctx, op, retryAttempts, retryBaseDelay, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Warn("failed to roll back transaction", "op", op, "error", rbErr)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}
