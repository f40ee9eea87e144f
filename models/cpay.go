package models

import "time"

// BillingRequest is the payload submitted from the checkout billing form.
type BillingRequest struct {
	Billing       BillingDetails `json:"billing"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
}

// CashOnDeliveryRequest answers the "place this order as cash on delivery?" prompt.
// Confirm must be present; a missing answer is not a "no".
type CashOnDeliveryRequest struct {
	Confirm *bool `json:"confirm"`
}

// PaymentCallback is what the storefront posts once the gateway widget finishes.
type PaymentCallback struct {
	Status    string `json:"status"`              // "success", "failure" or "dismissed"
	PaymentID string `json:"paymentId,omitempty"` // gateway payment id, success only
	OrderRef  string `json:"orderRef,omitempty"`  // gateway-side order id
	Signature string `json:"signature,omitempty"` // passed through, not verified
	Reason    string `json:"reason,omitempty"`
}

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	Owner       string                 `bson:"owner" json:"owner"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
