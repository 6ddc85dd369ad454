// Package repository implements durable per-client flag storage.
//
// A flag store is the server-side analogue of a browser's per-origin
// key-value store: values are grouped by namespace (one per client) and
// survive page reloads and process restarts when a durable backend is used.
package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a requested flag does not exist.
var ErrNotFound = errors.New("not found")

// FlagStore reads and writes string flags grouped by namespace.
type FlagStore interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
}

// ScopedFlags is a FlagStore bound to one namespace.
type ScopedFlags struct {
	store     FlagStore
	namespace string
}

// Scope binds store to namespace.
func Scope(store FlagStore, namespace string) *ScopedFlags {
	return &ScopedFlags{store: store, namespace: namespace}
}

// Get returns the flag value or ErrNotFound.
func (s *ScopedFlags) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.namespace, key)
}

// Set stores the flag value.
func (s *ScopedFlags) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.namespace, key, value)
}

// MemoryFlagStore keeps flags in process memory. Values are lost on restart.
type MemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[string]map[string]string
}

// NewMemoryFlagStore constructs an empty MemoryFlagStore.
func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]map[string]string)}
}

// Get returns the flag value or ErrNotFound.
func (m *MemoryFlagStore) Get(_ context.Context, namespace, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.flags[namespace][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores the flag value.
func (m *MemoryFlagStore) Set(_ context.Context, namespace, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.flags[namespace]
	if !ok {
		ns = make(map[string]string)
		m.flags[namespace] = ns
	}
	ns[key] = value
	return nil
}
