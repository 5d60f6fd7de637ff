package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store for testing. Thread-safe.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	commitMu sync.Mutex
	commits  [][]string
}

// NewMemoryStore creates an in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores a blob.
func (m *MemoryStore) Put(ctx context.Context, name string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = data
	return nil
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[name]
	if !ok {
		return nil, fmt.Errorf("blobstore: %s: %w", name, ErrNotFound)
	}
	// Copy so the caller cannot mutate the stored blob.
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}

// List returns all blob names with the prefix.
func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
	return nil
}

// Commit records a completed artifact set.
func (m *MemoryStore) Commit(ctx context.Context, artifacts []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	m.commits = append(m.commits, append([]string(nil), artifacts...))
	return nil
}

// Commits returns the recorded artifact sets, oldest first.
func (m *MemoryStore) Commits() [][]string {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	out := make([][]string, len(m.commits))
	copy(out, m.commits)
	return out
}
