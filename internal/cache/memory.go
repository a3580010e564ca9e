package cache

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Memory keeps scopes in a process-local LRU. Each scope holds an immutable
// field map that is copied on write. Generations live outside the LRU so that
// evicting a scope never rewinds its counter.
type Memory struct {
	scopes *LRUCache[map[string][]byte]

	mu   sync.Mutex
	gens map[string]uint64

	stopCleanup chan struct{}
	cleanupDone chan struct{}
	closeOnce   sync.Once
}

// NewMemory creates an in-process store. A positive cleanupInterval starts a
// background sweep of expired scopes that runs until Close.
func NewMemory(maxScopes int, ttl, cleanupInterval time.Duration) *Memory {
	m := &Memory{
		scopes: NewLRUCache[map[string][]byte](maxScopes, ttl),
		gens:   make(map[string]uint64),
	}
	if cleanupInterval > 0 {
		m.stopCleanup = make(chan struct{})
		m.cleanupDone = make(chan struct{})
		go m.cleanup(cleanupInterval)
	}
	return m
}

func (m *Memory) Get(_ context.Context, scope, field string) ([]byte, bool, error) {
	fields, ok := m.scopes.Get(scope)
	if !ok {
		return nil, false, nil
	}
	v, ok := fields[field]
	return v, ok, nil
}

func (m *Memory) Generation(_ context.Context, scope string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[scope], nil
}

func (m *Memory) Set(_ context.Context, scope, field string, value []byte, gen uint64) error {
	stored := append([]byte(nil), value...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[scope] != gen {
		return ErrStale
	}
	m.scopes.Update(scope, func(current map[string][]byte, found bool) map[string][]byte {
		next := make(map[string][]byte, len(current)+1)
		if found {
			maps.Copy(next, current)
		}
		next[field] = stored
		return next
	})
	return nil
}

func (m *Memory) Invalidate(_ context.Context, scopes ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, scope := range scopes {
		m.gens[scope]++
		m.scopes.Delete(scope)
	}
	return nil
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		if m.stopCleanup != nil {
			close(m.stopCleanup)
			<-m.cleanupDone
		}
	})
	return nil
}

func (m *Memory) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.scopes.CleanExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

var _ Store = (*Memory)(nil)
