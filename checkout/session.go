package checkout

import (
	"sync"
	"time"

	"shopfront/cart"
	"shopfront/models"
	"shopfront/orders"
	"shopfront/pay"
	"shopfront/pricing"

	"github.com/shopspring/decimal"
)

// Session is one checkout attempt over a frozen cart snapshot.
// All fields below mu are guarded by it.
type Session struct {
	id      string
	owner   string
	cartSID string
	store   *cart.Store

	mu       sync.Mutex
	snapshot cart.Snapshot
	state    State
	billing  models.BillingDetails
	method   models.PaymentMethod
	intent   *pay.Intent
	pending  *pay.Pending
	outcome  *pay.Result
	order    *models.Order
	reason   string
	done     chan struct{}
	updated  time.Time
}

func (s *Session) ID() string { return s.id }

// finish moves s into a terminal state. Callers hold s.mu.
func (s *Session) finish(state State, now time.Time) {
	s.state = state
	s.updated = now
	close(s.done)
}

// PaymentView is what the storefront needs to open the gateway widget.
type PaymentView struct {
	Intent           pay.Intent  `json:"intent"`
	AmountMinorUnits int64       `json:"amountMinorUnits"`
	Contact          pay.Contact `json:"contact"`
}

// View is the externally visible state of a checkout.
type View struct {
	ID            string                    `json:"checkoutId"`
	State         State                     `json:"state"`
	Items         []models.CartLineItem     `json:"items"`
	Subtotal      decimal.Decimal           `json:"subtotal"`
	ItemCount     int                       `json:"itemCount"`
	Shipping      string                    `json:"shipping"`
	PaymentMethod models.PaymentMethod      `json:"paymentMethod,omitempty"`
	Payment       *PaymentView              `json:"payment,omitempty"`
	Outcome       *pay.Result               `json:"outcome,omitempty"`
	Reason        string                    `json:"reason,omitempty"`
	Confirmation  *models.OrderConfirmation `json:"confirmation,omitempty"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

// view renders s. Callers hold s.mu.
func (s *Session) view(currency string) View {
	totals := s.snapshot.Totals()
	items := s.snapshot.Items()
	if items == nil {
		items = []models.CartLineItem{}
	}
	v := View{
		ID:            s.id,
		State:         s.state,
		Items:         items,
		Subtotal:      totals.Subtotal,
		ItemCount:     totals.ItemCount,
		Shipping:      pricing.Shipping,
		PaymentMethod: s.method,
		Outcome:       s.outcome,
		Reason:        s.reason,
		UpdatedAt:     s.updated,
	}
	if s.intent != nil && s.state == StateAwaitingPayment {
		v.Payment = &PaymentView{
			Intent:           *s.intent,
			AmountMinorUnits: pricing.MinorUnits(totals.Subtotal),
			Contact:          contactOf(s.billing),
		}
	}
	if s.order != nil {
		c := orders.Confirmation(*s.order, currency)
		v.Confirmation = &c
	}
	return v
}

func contactOf(b models.BillingDetails) pay.Contact {
	return pay.Contact{Name: b.FullName, Email: b.Email, Phone: b.Phone}
}
