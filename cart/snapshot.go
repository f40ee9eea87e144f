package cart

import (
	"shopfront/models"
	"shopfront/pricing"
)

// Snapshot is a frozen copy of a cart taken at one point in time.
// Later cart mutations never show through it.
type Snapshot struct {
	items []models.CartLineItem
}

// Items returns a copy of the frozen lines.
func (s Snapshot) Items() []models.CartLineItem {
	return copyItems(s.items)
}

func (s Snapshot) Totals() pricing.Totals {
	return pricing.ComputeTotals(s.items)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.items) == 0
}
