package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"shopfront/cart"
	"shopfront/models"
	"shopfront/pricing"

	"go.uber.org/zap"
)

var ErrOrderNotFound = errors.New("no order found")

// Recorder is the only writer of the persisted order lists.
type Recorder struct {
	store  Store
	ids    *IDGenerator
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		store:  store,
		ids:    NewIDGenerator(),
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Create builds the order for a confirmed checkout. Billing and line items
// are copied so later changes to either never reach the order.
// paymentRef is the gateway payment id and empty for cash on delivery.
func (r *Recorder) Create(snap cart.Snapshot, billing models.BillingDetails, method models.PaymentMethod, paymentRef string) models.Order {
	r.mu.Lock()
	placed := r.now()
	days := 3 + r.rng.Intn(2)
	r.mu.Unlock()

	totals := snap.Totals()
	return models.Order{
		OrderID:              r.ids.Next(),
		PlacedAt:             placed,
		ExpectedDeliveryDate: placed.AddDate(0, 0, days),
		PaymentMethod:        method,
		PaymentReference:     paymentRef,
		TotalAmount:          totals.Subtotal,
		ItemCount:            totals.ItemCount,
		Items:                snap.Items(),
		ShippingAddress:      billing,
	}
}

// Append persists order at the head of owner's list. A storage failure is
// logged and swallowed: the order has been placed either way and the caller
// still gets it back.
func (r *Recorder) Append(ctx context.Context, owner string, order models.Order) models.Order {
	if err := r.store.Prepend(ctx, owner, order); err != nil {
		r.logger.Error("failed to persist order",
			zap.String("owner", owner),
			zap.String("order_id", order.OrderID),
			zap.Error(err),
		)
	}
	return order
}

// List returns owner's orders, most recent first, keeping only the first
// occurrence of any repeated order id.
func (r *Recorder) List(ctx context.Context, owner string) ([]models.Order, error) {
	stored, err := r.store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return dedupe(stored), nil
}

// Get returns one of owner's orders.
func (r *Recorder) Get(ctx context.Context, owner, orderID string) (models.Order, error) {
	list, err := r.List(ctx, owner)
	if err != nil {
		return models.Order{}, err
	}
	for _, o := range list {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func dedupe(list []models.Order) []models.Order {
	seen := make(map[string]struct{}, len(list))
	out := make([]models.Order, 0, len(list))
	for _, o := range list {
		if _, dup := seen[o.OrderID]; dup {
			continue
		}
		seen[o.OrderID] = struct{}{}
		out = append(out, o)
	}
	return out
}

// Confirmation builds the order-confirmation view state.
func Confirmation(o models.Order, currency string) models.OrderConfirmation {
	return models.OrderConfirmation{
		OrderID:         o.OrderID,
		PaymentMethod:   o.PaymentMethod,
		TotalAmount:     pricing.FormatAmount(o.TotalAmount, currency),
		ItemCount:       o.ItemCount,
		ShippingAddress: o.ShippingAddress,
		ExpectedBy:      o.ExpectedDeliveryDate,
	}
}
