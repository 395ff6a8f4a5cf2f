package cache

import (
	"context"
	"sync"
)

// MemoryCache keeps the snapshot in process memory. Values are stored in
// encoded form so callers cannot alias cached state.
type MemoryCache struct {
	mu    sync.RWMutex
	draft []byte
	turns []byte
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Save(_ context.Context, snap Snapshot) error {
	draft, turns, err := encode(snap)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.draft, c.turns = draft, turns
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Load(_ context.Context) (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return decode(c.draft, c.turns), nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.draft, c.turns = nil, nil
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error { return nil }
