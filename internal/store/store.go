// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/eventplanner/internal/domain"
)

// ErrNotFound is returned when a session does not exist for the user.
var ErrNotFound = errors.New("session not found")

// SessionRef identifies one recorded session.
type SessionRef struct {
	UserID        string
	ChatSessionID string
}

// Repository defines the interface for persisting recorded planning sessions.
type Repository interface {
	// CreateSession records a new session with its initial entries. If the
	// session already exists its event data is replaced and the entries are
	// appended.
	CreateSession(ctx context.Context, rec *domain.SessionRecord) error

	// AppendEntry adds one exchange to an existing session.
	AppendEntry(ctx context.Context, userID, chatSessionID string, entry domain.ChatEntry) error

	// GetSession retrieves one session with its history.
	GetSession(ctx context.Context, userID, chatSessionID string) (*domain.SessionRecord, error)

	// ListSessions retrieves every session of a user, newest first.
	ListSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error)

	// DeleteSession removes a session and its history.
	DeleteSession(ctx context.Context, userID, chatSessionID string) error

	// DeleteExpiredSessions removes sessions not updated within maxAge.
	DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) ([]SessionRef, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
