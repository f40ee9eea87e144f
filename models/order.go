package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how an order gets paid.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentGateway        PaymentMethod = "gateway"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentGateway
}

// BillingDetails is the contact and shipping data collected at checkout.
// Every field is required; none is format-validated.
type BillingDetails struct {
	FullName string `json:"fullName" bson:"fullName"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phone" bson:"phone"`
	Address  string `json:"address" bson:"address"`
	City     string `json:"city" bson:"city"`
	Pincode  string `json:"pincode" bson:"pincode"`
}

// Order represents a placed order. It is never modified after creation.
type Order struct {
	OrderID              string          `json:"orderId"`
	PlacedAt             time.Time       `json:"placedAt"`
	ExpectedDeliveryDate time.Time       `json:"expectedDeliveryDate"`
	PaymentMethod        PaymentMethod   `json:"paymentMethod"`
	PaymentReference     string          `json:"paymentReference,omitempty"` // gateway payment id
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	ItemCount            int             `json:"itemCount"`
	Items                []CartLineItem  `json:"items"`
	ShippingAddress      BillingDetails  `json:"shippingAddress"`
}

// OrderConfirmation is the state handed to the order-confirmation view.
type OrderConfirmation struct {
	OrderID         string         `json:"orderId"`
	PaymentMethod   PaymentMethod  `json:"paymentMethod"`
	TotalAmount     string         `json:"totalAmount"` // formatted, e.g. "₹500.00"
	ItemCount       int            `json:"itemCount"`
	ShippingAddress BillingDetails `json:"shippingAddress"`
	ExpectedBy      time.Time      `json:"expectedDeliveryDate"`
}
