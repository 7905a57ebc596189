package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/seu-repo/bloquito/internal/ports"
)

// MockCache is an in-memory ports.Cache that remembers the expiration of
// every write. Expirations are recorded, not enforced.
type MockCache struct {
	mu          sync.Mutex
	data        map[string]string
	Expirations map[string]time.Duration
	GetFunc     func(ctx context.Context, key string) (string, error)
	SetFunc     func(ctx context.Context, key string, value string, expiration time.Duration) error
	PingFunc    func() error
	Closed      bool
}

func NewMockCache() *MockCache {
	return &MockCache{
		data:        make(map[string]string),
		Expirations: make(map[string]time.Duration),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return "", ports.ErrCacheMiss
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.Expirations[key] = expiration
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.Expirations, key)
	return nil
}

func (m *MockCache) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func (m *MockCache) Close() error {
	m.Closed = true
	return nil
}
