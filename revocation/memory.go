package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process denylist. Expired entries are pruned lazily on Revoke.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemory returns an empty denylist using clock, or time.Now when nil.
func NewMemory(clock func() time.Time) *Memory {
	if clock == nil {
		clock = time.Now
	}
	return &Memory{entries: make(map[string]time.Time), now: clock}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	now := m.now()
	if !until.After(now) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	m.entries[tokenID] = until
	return nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	exp, ok := m.entries[tokenID]
	m.mu.RUnlock()

	return ok && exp.After(m.now()), nil
}

// Len returns the number of tracked entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
