package datastore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory provides an in-memory KeyValueStore for tests.
// It mirrors SQLite behavior for validation and error handling.
type Memory struct {
	mu sync.RWMutex

	now func() time.Time

	values  map[string]string
	updated map[string]time.Time
	closed  bool
}

// NewMemory creates a Memory store using time.Now().UTC().
func NewMemory() *Memory {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a Memory store with a custom clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Memory{
		now:     now,
		values:  make(map[string]string),
		updated: make(map[string]time.Time),
	}
}

var errClosed = fmt.Errorf("datastore: store is closed")

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, fmt.Errorf("datastore: get: %w", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, errClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return fmt.Errorf("datastore: set: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	m.values[key] = value
	m.updated[key] = m.now()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return fmt.Errorf("datastore: delete: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	delete(m.values, key)
	delete(m.updated, key)
	return nil
}

// UpdatedAt returns when a key was last written. Zero time if missing.
func (m *Memory) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated[key], nil
}

// Close marks the store closed; later calls fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
