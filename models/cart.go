package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem represents a single product entry in a session's cart.
type CartLineItem struct {
	ID        string          `json:"id"`              // product id, unique within a cart
	Title     string          `json:"title"`           // display only
	Image     string          `json:"image,omitempty"` // display only
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"` // always >= 1 while stored
}

// LineTotal is unitPrice x quantity for this line.
func (c CartLineItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CartView is what the cart endpoints return.
type CartView struct {
	Items     []CartLineItem  `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
	Shipping  string          `json:"shipping"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AddItemRequest is the payload for adding a product to the cart.
// Title, image and price are filled from the catalog, never trusted from the client.
type AddItemRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity,omitempty"`
}

// DecreaseItemRequest is the optional payload for decrementing a line.
type DecreaseItemRequest struct {
	Quantity int `json:"quantity,omitempty"`
}
