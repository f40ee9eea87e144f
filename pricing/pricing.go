package pricing

import (
	"strings"

	"shopfront/models"

	"github.com/shopspring/decimal"
)

// Shipping is charged as a constant label; there is no shipping fee in this shop.
const Shipping = "free"

var hundred = decimal.NewFromInt(100)

// Totals is derived from cart lines and never stored.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
}

// ComputeTotals sums unitPrice x quantity and quantity over items.
// The result depends only on its input.
func ComputeTotals(items []models.CartLineItem) Totals {
	t := Totals{Subtotal: decimal.Zero}
	for _, it := range items {
		t.Subtotal = t.Subtotal.Add(it.LineTotal())
		t.ItemCount += it.Quantity
	}
	return t
}

// MinorUnits converts an amount to the currency's smallest subunit (paise, cents),
// rounding half away from zero. This is the only place rounding happens.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// FormatAmount renders amount with two decimals and the currency symbol,
// falling back to the ISO code for currencies without one.
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := symbols[code]; ok {
		return sym + amount.StringFixed(2)
	}
	if code == "" {
		return amount.StringFixed(2)
	}
	return code + " " + amount.StringFixed(2)
}
