// Package cooldown tracks per-(entity, tool, actor) last-use
// timestamps for tool gating. Timestamps are committed only after a
// successful execution, inside the dispatcher's region unit.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/jwebster45206/npc-engine/pkg/world"
)

// Key identifies one cooldown record.
type Key struct {
	Entity world.EntityID
	Tool   string
	Actor  world.ActorID
}

// Store is the cooldown persistence interface. Implementations must be
// safe for concurrent use from worker and region goroutines.
type Store interface {
	// LastUsed returns the last committed use, if any.
	LastUsed(ctx context.Context, key Key) (time.Time, bool, error)

	// Commit records a successful use at t. Monotonic: an earlier t
	// never overwrites a later one.
	Commit(ctx context.Context, key Key, t time.Time) error

	Close() error
}

// Ready reports whether the cooldown for key has elapsed at now.
// Store errors fail open with the error returned so callers can log.
func Ready(ctx context.Context, s Store, key Key, cooldown time.Duration, now time.Time) (bool, error) {
	if cooldown <= 0 {
		return true, nil
	}
	last, ok, err := s.LastUsed(ctx, key)
	if err != nil {
		return true, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(last) >= cooldown, nil
}

// MemoryStore is the default in-process store. Nothing survives a
// restart, matching the engine's no-persistence contract.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Key]time.Time)}
}

func (m *MemoryStore) LastUsed(ctx context.Context, key Key) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.records[key]
	return t, ok, nil
}

func (m *MemoryStore) Commit(ctx context.Context, key Key, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[key]; ok && existing.After(t) {
		return nil
	}
	m.records[key] = t
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
