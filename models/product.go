package models

import "github.com/shopspring/decimal"

// Product is a catalog entry as seen by the cart.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// LineItem builds the cart line for qty units of p.
func (p Product) LineItem(qty int) CartLineItem {
	var image string
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return CartLineItem{
		ID:        p.ID,
		Title:     p.Name,
		Image:     image,
		UnitPrice: p.Price,
		Quantity:  qty,
	}
}
