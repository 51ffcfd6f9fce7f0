// Package kv provides flat key-value stores with whole-value overwrite
// semantics. Values are opaque bytes; callers encode documents as JSON.
package kv

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Store is a flat key-value store. Get and Set are each atomic: a Set of
// several keys is never partially visible.
type Store interface {
	// Get returns the values of the requested keys. Missing keys are absent
	// from the result.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// Set overwrites every given key with its new value.
	Set(ctx context.Context, items map[string][]byte) error
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend    string // "file" | "sqlite" | "redis" | "memory"
	FilePath   string
	SQLitePath string
	RedisURL   string
	RedisKey   string // key prefix, defaults to "tabkeep:"
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.FilePath), nil
	case "sqlite":
		return NewSQLiteStore(opts.SQLitePath)
	case "redis":
		return NewRedisStore(ctx, opts.RedisURL, opts.RedisKey)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Snapshot returns a copy of every stored key.
func (m *MemoryStore) Snapshot() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}
