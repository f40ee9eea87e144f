package pay

import (
	"context"
	"errors"
)

// ErrGatewayUnavailable means the payment widget could not be opened.
// Nothing was charged; the caller may retry by hand.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Contact prefills the gateway widget.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"contact"`
}

// Request opens one payment attempt. Amount is in minor units (paise, cents).
type Request struct {
	CheckoutID       string  `json:"-"`
	AmountMinorUnits int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Receipt          string  `json:"receipt"`
	Contact          Contact `json:"prefill"`
}

// Intent is what the storefront needs to render the gateway widget.
type Intent struct {
	ID               string `json:"id"`
	Key              string `json:"key,omitempty"`
	AmountMinorUnits int64  `json:"amount"`
	Currency         string `json:"currency"`
}

// Gateway opens payment attempts with an external processor.
// The outcome never comes back through Open; it arrives later as a callback.
type Gateway interface {
	Open(ctx context.Context, req Request) (Intent, error)
}
