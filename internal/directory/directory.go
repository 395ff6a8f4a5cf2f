// Package directory lists, selects and deletes a user's recorded sessions.
package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/ashureev/eventplanner/internal/domain"
)

// Source is the remote store of recorded sessions.
type Source interface {
	ListSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error)
	DeleteSession(ctx context.Context, userID, chatSessionID string) error
}

// Directory memoises listings per user and tracks the selected record.
// Failures never escape: List degrades to an empty slice and Delete to false.
type Directory struct {
	src    Source
	logger *slog.Logger
	memo   *cache.Cache
	group  singleflight.Group

	// memoMu guards memo writes against gens; a fetch that started before
	// Invalidate must not repopulate the memo.
	memoMu sync.Mutex
	gens   map[string]uint64

	mu       sync.Mutex
	selected *domain.SessionRecord
}

// Option configures a Directory.
type Option func(*Directory)

// WithTTL memoises listings for ttl. A zero ttl disables memoisation.
func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) {
		if ttl <= 0 {
			d.memo = nil
			return
		}
		d.memo = cache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a directory over src with a 30 second listing memo.
func New(src Source, opts ...Option) *Directory {
	d := &Directory{
		src:    src,
		logger: slog.Default(),
		memo:   cache.New(30*time.Second, time.Minute),
		gens:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// List returns userID's sessions, newest first. It returns an empty slice,
// without calling the source, when userID is empty.
func (d *Directory) List(ctx context.Context, userID string) []domain.SessionRecord {
	if userID == "" {
		return []domain.SessionRecord{}
	}

	if d.memo != nil {
		if x, found := d.memo.Get(userID); found {
			return copyRecords(x.([]domain.SessionRecord))
		}
	}

	v, err, _ := d.group.Do(userID, func() (any, error) {
		gen := d.generation(userID)
		records, err := d.src.ListSessions(ctx, userID)
		if err != nil {
			return nil, err
		}
		sorted := domain.SortByNewest(records)
		d.remember(userID, gen, sorted)
		return sorted, nil
	})
	if err != nil {
		d.logger.Warn("Failed to list sessions", "user_id", userID, "error", err)
		return []domain.SessionRecord{}
	}
	return copyRecords(v.([]domain.SessionRecord))
}

// Delete removes one session. On success the user's listing is invalidated
// and, if that session was selected, the selection is cleared.
func (d *Directory) Delete(ctx context.Context, chatSessionID, userID string) bool {
	if userID == "" || chatSessionID == "" {
		d.logger.Warn("Refusing to delete session without ids", "user_id", userID, "chat_session_id", chatSessionID)
		return false
	}

	if err := d.src.DeleteSession(ctx, userID, chatSessionID); err != nil {
		d.logger.Warn("Failed to delete session", "user_id", userID, "chat_session_id", chatSessionID, "error", err)
		return false
	}

	d.clearSelectionIf(chatSessionID)
	d.Invalidate(userID)
	d.logger.Info("Session deleted", "user_id", userID, "chat_session_id", chatSessionID)
	return true
}

// Select marks record as the one being viewed.
func (d *Directory) Select(record domain.SessionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = &record
}

// SelectByID selects the listed record with chatSessionID, if present.
func (d *Directory) SelectByID(ctx context.Context, userID, chatSessionID string) (domain.SessionRecord, bool) {
	for _, r := range d.List(ctx, userID) {
		if r.ChatSessionID == chatSessionID {
			d.Select(r)
			return r, true
		}
	}
	return domain.SessionRecord{}, false
}

// Selected returns the selected record.
func (d *Directory) Selected() (domain.SessionRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected == nil {
		return domain.SessionRecord{}, false
	}
	return *d.selected, true
}

// ClearSelection drops the selection.
func (d *Directory) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected = nil
}

// Invalidate forgets the memoised listing for userID. A fetch already in
// flight still answers its callers but is not memoised.
func (d *Directory) Invalidate(userID string) {
	d.memoMu.Lock()
	d.gens[userID]++
	if d.memo != nil {
		d.memo.Delete(userID)
	}
	d.memoMu.Unlock()
	d.group.Forget(userID)
}

func (d *Directory) generation(userID string) uint64 {
	d.memoMu.Lock()
	defer d.memoMu.Unlock()
	return d.gens[userID]
}

// remember memoises records unless userID was invalidated since gen.
func (d *Directory) remember(userID string, gen uint64, records []domain.SessionRecord) {
	d.memoMu.Lock()
	defer d.memoMu.Unlock()
	if d.memo == nil || d.gens[userID] != gen {
		return
	}
	d.memo.Set(userID, records, cache.DefaultExpiration)
}

// clearSelectionIf drops the selection when it refers to chatSessionID.
func (d *Directory) clearSelectionIf(chatSessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected != nil && d.selected.ChatSessionID == chatSessionID {
		d.selected = nil
	}
}

func copyRecords(in []domain.SessionRecord) []domain.SessionRecord {
	out := make([]domain.SessionRecord, len(in))
	copy(out, in)
	return out
}
