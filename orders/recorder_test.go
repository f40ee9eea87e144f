package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopfront/cart"
	"shopfront/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var billing = models.BillingDetails{
	FullName: "Asha Rao",
	Email:    "asha@example.com",
	Phone:    "98450",
	Address:  "12 MG Road",
	City:     "Bengaluru",
	Pincode:  "560001",
}

func snapshotOf(items ...models.CartLineItem) cart.Snapshot {
	st := cart.NewStore()
	for _, it := range items {
		st.AddOrIncrease(it, it.Quantity)
	}
	return st.Snapshot()
}

func line(id string, price string, qty int) models.CartLineItem {
	return models.CartLineItem{ID: id, Title: "item " + id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestCreate_BuildsOrderFromSnapshot(t *testing.T) {
	placed := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(NewMemoryStore(), nil)
	r.now = func() time.Time { return placed }

	o := r.Create(snapshotOf(line("p1", "100", 2), line("p2", "300", 1)), billing, models.PaymentCashOnDelivery, "")

	assert.Regexp(t, `^ORD\d+$`, o.OrderID)
	assert.Equal(t, placed, o.PlacedAt)
	assert.Equal(t, "500", o.TotalAmount.String())
	assert.Equal(t, 3, o.ItemCount)
	assert.Equal(t, models.PaymentCashOnDelivery, o.PaymentMethod)
	assert.Equal(t, billing, o.ShippingAddress)
	assert.Len(t, o.Items, 2)
}

func TestCreate_DeliveryInThreeToFourDays(t *testing.T) {
	placed := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	r := NewRecorder(NewMemoryStore(), nil)
	r.now = func() time.Time { return placed }

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		o := r.Create(snapshotOf(line("p1", "1", 1)), billing, models.PaymentGateway, "pay_1")
		days := int(o.ExpectedDeliveryDate.Sub(placed).Hours() / 24)
		require.Contains(t, []int{3, 4}, days)
		seen[days] = true
	}
	assert.Len(t, seen, 2)
}

// an order never changes after creation, whatever happens to its inputs
func TestCreate_OrderIsIsolatedFromInputs(t *testing.T) {
	store := cart.NewStore()
	store.AddOrIncrease(line("p1", "100", 1), 2)
	b := billing

	r := NewRecorder(NewMemoryStore(), nil)
	o := r.Create(store.Snapshot(), b, models.PaymentGateway, "pay_1")

	store.AddOrIncrease(line("p1", "100", 1), 5)
	store.Clear()
	b.City = "Mysuru"

	assert.Equal(t, "Bengaluru", o.ShippingAddress.City)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "200", o.TotalAmount.String())
}

func TestAppend_PrependsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(NewMemoryStore(), nil)

	first := r.Append(ctx, "u1", r.Create(snapshotOf(line("p1", "1", 1)), billing, models.PaymentCashOnDelivery, ""))
	second := r.Append(ctx, "u1", r.Create(snapshotOf(line("p2", "2", 1)), billing, models.PaymentCashOnDelivery, ""))

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.OrderID, list[0].OrderID)
	assert.Equal(t, first.OrderID, list[1].OrderID)

	other, err := r.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

type brokenStore struct{ err error }

func (b brokenStore) Prepend(context.Context, string, models.Order) error { return b.err }
func (b brokenStore) Load(context.Context, string) ([]models.Order, error) {
	return nil, b.err
}

func TestAppend_PersistenceFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := NewRecorder(brokenStore{err: errors.New("disk full")}, zap.New(core))

	o := r.Create(snapshotOf(line("p1", "10", 1)), billing, models.PaymentGateway, "pay_1")
	got := r.Append(context.Background(), "u1", o)

	assert.Equal(t, o.OrderID, got.OrderID)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to persist order", logs.All()[0].Message)
}

func TestList_LoadErrorSurfaces(t *testing.T) {
	r := NewRecorder(brokenStore{err: errors.New("timeout")}, nil)

	_, err := r.List(context.Background(), "u1")
	assert.Error(t, err)
}

func TestList_DuplicateIDsKeepFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewRecorder(store, nil)

	older := models.Order{OrderID: "ORD1", TotalAmount: decimal.NewFromInt(1), PaymentMethod: models.PaymentGateway}
	newer := models.Order{OrderID: "ORD1", TotalAmount: decimal.NewFromInt(2), PaymentMethod: models.PaymentGateway}
	require.NoError(t, store.Prepend(ctx, "u1", older))
	require.NoError(t, store.Prepend(ctx, "u1", models.Order{OrderID: "ORD2", PaymentMethod: models.PaymentGateway}))
	require.NoError(t, store.Prepend(ctx, "u1", newer))

	list, err := r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ORD1", list[0].OrderID)
	assert.Equal(t, "2", list[0].TotalAmount.String())
	assert.Equal(t, "ORD2", list[1].OrderID)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(NewMemoryStore(), nil)
	o := r.Append(ctx, "u1", r.Create(snapshotOf(line("p1", "1", 1)), billing, models.PaymentCashOnDelivery, ""))

	got, err := r.Get(ctx, "u1", o.OrderID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderID, got.OrderID)

	_, err = r.Get(ctx, "u1", "ORD0")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = r.Get(ctx, "someone-else", o.OrderID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirmation(t *testing.T) {
	o := models.Order{
		OrderID:         "ORD5",
		PaymentMethod:   models.PaymentCashOnDelivery,
		TotalAmount:     decimal.NewFromInt(500),
		ItemCount:       2,
		ShippingAddress: billing,
	}

	c := Confirmation(o, "INR")

	assert.Equal(t, "₹500.00", c.TotalAmount)
	assert.Equal(t, models.PaymentCashOnDelivery, c.PaymentMethod)
	assert.Equal(t, 2, c.ItemCount)
	assert.Equal(t, billing, c.ShippingAddress)
}
