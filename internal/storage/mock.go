package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/world"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.GameSession
	worlds    map[string]*world.World
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*session.GameSession),
		worlds:   make(map[string]*world.World),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveSession with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddWorld registers a world module under the given module name
func (m *MockStorage) AddWorld(module string, w *world.World) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[module] = w
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession mocks saving a session
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, gs *session.GameSession) error {
	if gs == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[id] = gs
	return nil
}

// LoadSession mocks loading a session. Returns nil for not found.
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.GameSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

// DeleteSession mocks deleting a session
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// LoadWorld mocks loading a world module
func (m *MockStorage) LoadWorld(ctx context.Context, module string) (*world.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.worlds[module]
	if !ok {
		return nil, fmt.Errorf("world module not found: %s", module)
	}
	return w, nil
}

// ListModules mocks listing world modules
func (m *MockStorage) ListModules(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	modules := make(map[string]string, len(m.worlds))
	for module, w := range m.worlds {
		modules[module] = w.Name
	}
	return modules, nil
}
