// Package reportcache keeps generated report workbooks for a short time so
// they can be downloaded by job id.
package reportcache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("report not found or expired")

// Report is a stored workbook.
type Report struct {
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
}

// Store saves and loads reports by job id.
type Store interface {
	Put(ctx context.Context, jobID string, r Report, ttl time.Duration) error
	Get(ctx context.Context, jobID string) (Report, error)
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	report    Report
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Put stores r until ttl elapses. Expired entries are swept on every Put.
func (m *MemoryStore) Put(_ context.Context, jobID string, r Report, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.entries[jobID] = memoryEntry{report: r, expiresAt: now.Add(ttl)}
	return nil
}

// Get returns the report or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, jobID string) (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[jobID]
	if !ok {
		return Report{}, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, jobID)
		return Report{}, ErrNotFound
	}
	return e.report, nil
}
