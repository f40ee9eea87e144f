package orders

import (
	"context"
	"sync"

	"shopfront/models"
)

// Store is the persisted per-owner order list, most recent first.
type Store interface {
	// Prepend puts order at the head of owner's list.
	Prepend(ctx context.Context, owner string, order models.Order) error
	// Load returns owner's list as stored. Malformed entries are dropped;
	// an owner with no list yields an empty slice.
	Load(ctx context.Context, owner string) ([]models.Order, error)
}

// MemoryStore keeps order lists in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string][]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string][]models.Order)}
}

func (m *MemoryStore) Prepend(_ context.Context, owner string, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[owner] = append([]models.Order{cloneOrder(order)}, m.orders[owner]...)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, owner string) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.orders[owner]
	out := make([]models.Order, len(list))
	for i, o := range list {
		out[i] = cloneOrder(o)
	}
	return out, nil
}

func cloneOrder(o models.Order) models.Order {
	if o.Items != nil {
		items := make([]models.CartLineItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}
