// Package store provides the small key-value store used for history, queue
// and preference persistence.
package store

import (
	"context"
	"sync"
)

// Store reads and writes string values by key. A missing key is reported with
// ok=false, not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Well-known keys.
const (
	KeyHistory = "history"
	KeyVolume  = "volume"
	KeyQueue   = "queue"
)

// Memory is an in-process Store, used in tests and when persistence is off.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
