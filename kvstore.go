package main

import "sync"

// KVStore is durable key-value storage. GetValue reports ok=false when the
// key has never been written.
type KVStore interface {
	GetValue(key string) (value []byte, ok bool, err error)
	SetValue(key string, value []byte) error
}

// MemoryStore is a KVStore that lives only as long as the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) GetValue(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStore) SetValue(key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}
