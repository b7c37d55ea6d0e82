/*
memory.go - In-memory reference-data source

PURPOSE:
  Backs tests and examples. Thread-safe so parallel tests can share one
  instance, though each validation pass only ever reads.
*/
package refdata

import (
	"context"
	"sync"
)

// Memory is an in-memory Source.
type Memory struct {
	mu       sync.RWMutex
	entities map[Kind]map[string]map[string]string
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{entities: make(map[Kind]map[string]map[string]string)}
}

// Put registers an entity with its scalar fields. Nil fields registers bare
// existence.
func (m *Memory) Put(kind Kind, id string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entities[kind] == nil {
		m.entities[kind] = make(map[string]map[string]string)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	m.entities[kind][id] = fields
}

// Exists implements Source.
func (m *Memory) Exists(_ context.Context, kind Kind, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entities[kind][id]
	return ok, nil
}

// Field implements Source.
func (m *Memory) Field(_ context.Context, kind Kind, id, field string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.entities[kind][id]
	if !ok {
		return "", false, nil
	}
	v, ok := fields[field]
	return v, ok, nil
}
