package storage

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage keeps objects in process memory. It backs development setups without S3
// and cannot issue presigned URLs, so direct-upload flows return ErrPresignUnsupported.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage creates an empty store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

// Put implements ObjectStorage
func (m *MemoryStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errKeyRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(data)
	return nil
}

// Get implements ObjectStorage
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return slices.Clone(data), nil
}

// Delete implements ObjectStorage
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Exists implements ObjectStorage
func (m *MemoryStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// PresignPut implements ObjectStorage
func (m *MemoryStorage) PresignPut(context.Context, string, string, time.Duration) (*PresignedURL, error) {
	return nil, ErrPresignUnsupported
}

// PresignGet implements ObjectStorage
func (m *MemoryStorage) PresignGet(context.Context, string, time.Duration) (*PresignedURL, error) {
	return nil, ErrPresignUnsupported
}

var _ ObjectStorage = (*MemoryStorage)(nil)
