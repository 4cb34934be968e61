// Package ledger records which snapshots already have a note.
package ledger

import (
	"context"
	"sync"
)

// Memory is a process-local ledger. Entries live until the process exits.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

// Lookup returns the note URL stored for key.
func (m *Memory) Lookup(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	url, ok := m.entries[key]
	return url, ok, nil
}

// Remember stores the note URL for key.
func (m *Memory) Remember(_ context.Context, key, noteURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = noteURL
	return nil
}

// Len reports the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
