// internal/state/mock.go
package state

import (
	"database/sql"
	"sync"
)

// Mock is a test double for Manager.
type Mock struct {
	mu     sync.Mutex
	prefs  *Preferences
	saves  int
	closed bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) GetPreferences() (*Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return nil, nil
	}
	p := *m.prefs
	return &p, nil
}

func (m *Mock) SavePreferences(prefs Preferences) {
	m.mu.Lock()
	m.prefs = &prefs
	m.saves++
	m.mu.Unlock()
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetPreferences(prefs *Preferences) {
	m.mu.Lock()
	m.prefs = prefs
	m.mu.Unlock()
}

func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
