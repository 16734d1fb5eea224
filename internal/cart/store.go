package cart

import (
	"fmt"
	"sync"
)

// Store is the persistence boundary for carts. The cart itself is a plain
// aggregate; where it lives (browser storage, a cookie, a cache) is injected
// so the cart logic stays unit-testable.
type Store interface {
	Load(id string) (*Cart, error)
	Save(id string, c *Cart) error
	Delete(id string) error
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	carts map[string][]Item
	mu    sync.RWMutex
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]Item),
	}
}

// Load returns the cart stored under id. Loading an unknown id returns a new
// empty cart.
func (s *MemoryStore) Load(id string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.carts[id]
	if !ok {
		return New(), nil
	}
	c := New()
	c.items = make([]Item, len(items))
	copy(c.items, items)
	return c, nil
}

// Save stores a snapshot of the cart under id.
func (s *MemoryStore) Save(id string, c *Cart) error {
	if c == nil {
		return fmt.Errorf("cannot save nil cart")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(c.items))
	copy(items, c.items)
	s.carts[id] = items
	return nil
}

// Delete removes the cart stored under id.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}
