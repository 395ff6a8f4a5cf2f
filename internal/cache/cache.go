// Package cache persists the in-progress draft and follow-up turns so a
// session survives process restarts.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ashureev/eventplanner/internal/domain"
)

// Logical keys of the two cached values.
const (
	KeyDraft = "draft"
	KeyTurns = "followUpTurns"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Snapshot is what was last saved. A nil member was never saved.
type Snapshot struct {
	Draft *domain.EventDraft
	Turns []domain.Turn
}

// Cache is a scoped, write-through key-value store for the active session.
// Save replaces both values at once; readers never observe a partial write.
type Cache interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// Open creates the configured backend scoped to scope.
func Open(cfg Config, scope string) (Cache, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLite(cfg.Path, scope)
	case BackendRedis:
		return NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		}, scope)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// encode serializes the snapshot into its two keyed values. A nil Turns
// slice is stored as an empty list so a saved snapshot always has both keys.
func encode(snap Snapshot) (draft []byte, turns []byte, err error) {
	d := domain.EventDraft{}
	if snap.Draft != nil {
		d = *snap.Draft
	}
	draft, err = json.Marshal(d)
	if err != nil {
		return nil, nil, fmt.Errorf("encode draft: %w", err)
	}

	t := snap.Turns
	if t == nil {
		t = []domain.Turn{}
	}
	turns, err = json.Marshal(t)
	if err != nil {
		return nil, nil, fmt.Errorf("encode turns: %w", err)
	}
	return draft, turns, nil
}

// decode rebuilds a snapshot from raw values. Missing values stay nil;
// corrupt values are logged and treated as missing.
func decode(draft, turns []byte) Snapshot {
	var snap Snapshot
	if draft != nil {
		var d domain.EventDraft
		if err := json.Unmarshal(draft, &d); err != nil {
			slog.Warn("Discarding unreadable cached draft", "error", err)
		} else {
			snap.Draft = &d
		}
	}
	if turns != nil {
		var t []domain.Turn
		if err := json.Unmarshal(turns, &t); err != nil {
			slog.Warn("Discarding unreadable cached turns", "error", err)
		} else {
			if t == nil {
				t = []domain.Turn{}
			}
			snap.Turns = t
		}
	}
	return snap
}
