package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process ObjectStore used by tests and by local
// development when no storage service is configured.
type MemoryStore struct {
	mu      sync.Mutex
	exists  bool
	objects map[string][]byte
	types   map[string]string

	// FailBucket makes every upload report a missing bucket, simulating
	// a service whose container was never provisioned.
	FailBucket bool
}

// NewMemoryStore returns an empty store whose bucket already exists.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exists:  true,
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *MemoryStore) EnsureBucket(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.FailBucket {
		m.exists = true
	}
	return nil
}

func (m *MemoryStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailBucket || !m.exists {
		return ErrBucketNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	m.types[key] = contentType
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return "memory://" + key
}

// Object returns the stored bytes and content type for key.
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, m.types[key], ok
}

// Keys lists every stored key.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
