package storage

import (
	"context"
	"sync"
)

// Memory keeps every slot in process memory. The zero value is not usable; call NewMemory.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]map[string]string)}
}

// Slot returns the storage for visitorID.
func (m *Memory) Slot(visitorID string) (Storage, error) {
	if err := validateVisitor(visitorID); err != nil {
		return nil, err
	}
	return memorySlot{backend: m, visitor: visitorID}, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

type memorySlot struct {
	backend *Memory
	visitor string
}

func (s memorySlot) GetItem(_ context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	v, ok := s.backend.slots[s.visitor][key]
	return v, ok, nil
}

func (s memorySlot) SetItem(_ context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	slot, ok := s.backend.slots[s.visitor]
	if !ok {
		slot = make(map[string]string)
		s.backend.slots[s.visitor] = slot
	}
	slot[key] = value
	return nil
}

func (s memorySlot) RemoveItem(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	delete(s.backend.slots[s.visitor], key)
	return nil
}
