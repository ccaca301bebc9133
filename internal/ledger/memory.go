package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-memory Store for tests and embedded use.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) SetStatus(_ context.Context, hash string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].Hash == hash {
			m.entries[i].Status = status
			m.entries[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("no ledger entry for hash %s", hash)
}

func (m *Memory) Pending(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for _, e := range m.entries {
		if e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}
