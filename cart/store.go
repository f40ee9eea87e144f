package cart

import (
	"sync"
	"time"

	"shopfront/models"
	"shopfront/pricing"
)

// Store holds the line items of one browser session.
// Line items are only ever changed through its methods; every method is a
// single atomic transition and none of them fail.
type Store struct {
	mu      sync.Mutex
	items   []models.CartLineItem
	touched time.Time
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now, touched: time.Now()}
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddOrIncrease adds delta units of item. An existing line with the same id
// accumulates the quantity; otherwise a new line is inserted with quantity delta.
// A delta below 1 is ignored.
func (s *Store) AddOrIncrease(item models.CartLineItem, delta int) {
	if delta < 1 || item.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()

	if i := s.index(item.ID); i >= 0 {
		s.items[i].Quantity += delta
		return
	}
	item.Quantity = delta
	s.items = append(s.items, item)
}

// DecreaseOrRemove takes delta units off the line with id. If that would leave
// the quantity at zero or below the line is removed instead.
func (s *Store) DecreaseOrRemove(id string, delta int) {
	if delta < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return
	}
	s.touched = s.now()
	if s.items[i].Quantity > delta {
		s.items[i].Quantity -= delta
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
}

// Remove deletes the line with id if present.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.touched = s.now()
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.touched = s.now()
}

// Snapshot returns an immutable copy of the current lines.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{items: copyItems(s.items)}
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// View renders the cart with its derived totals.
func (s *Store) View() models.CartView {
	s.mu.Lock()
	items := copyItems(s.items)
	touched := s.touched
	s.mu.Unlock()

	totals := pricing.ComputeTotals(items)
	if items == nil {
		items = []models.CartLineItem{}
	}
	return models.CartView{
		Items:     items,
		Subtotal:  totals.Subtotal,
		ItemCount: totals.ItemCount,
		Shipping:  pricing.Shipping,
		UpdatedAt: touched,
	}
}

func (s *Store) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func copyItems(items []models.CartLineItem) []models.CartLineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]models.CartLineItem, len(items))
	copy(out, items)
	return out
}
