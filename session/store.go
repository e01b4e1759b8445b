package session

import (
	"context"
	"sync"
)

// Store persists at most one [Record].
//
// Implementations must be safe for concurrent use. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, r Record) error
	// Load returns [ErrNotFound] when empty and [ErrCorruptRecord] for undecodable data.
	Load(ctx context.Context) (Record, error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the encoded record in memory.
//
// Records round-trip through [Encode] so behaviour matches the persistent stores.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save implements [Store].
func (m *MemoryStore) Save(ctx context.Context, r Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Load implements [Store].
func (m *MemoryStore) Load(ctx context.Context) (Record, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return Record{}, ErrNotFound
	}
	return Decode(data)
}

// Clear implements [Store].
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// SetRaw replaces the stored blob verbatim. It exists to seed stores with data written by
// other clients or older versions.
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}

// Raw returns a copy of the stored blob, or nil when empty.
func (m *MemoryStore) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}
