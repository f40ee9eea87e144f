package pay

import (
	"fmt"

	"shopfront/models"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeDismissed Outcome = "dismissed"
)

// Receipt is the gateway's proof of payment. It is carried into the order
// as-is; the signature is not verified here.
type Receipt struct {
	PaymentID string `json:"paymentId"`
	OrderRef  string `json:"orderRef,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Result is the awaited outcome of one gateway attempt.
type Result struct {
	Outcome Outcome  `json:"outcome"`
	Receipt *Receipt `json:"receipt,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

func Succeeded(r Receipt) Result {
	return Result{Outcome: OutcomeSuccess, Receipt: &r}
}

func Failed(reason string) Result {
	return Result{Outcome: OutcomeFailure, Reason: reason}
}

func Dismissed() Result {
	return Result{Outcome: OutcomeDismissed}
}

// ResultFromCallback maps the storefront's callback payload onto a Result.
func ResultFromCallback(cb models.PaymentCallback) (Result, error) {
	switch Outcome(cb.Status) {
	case OutcomeSuccess:
		if cb.PaymentID == "" {
			return Result{}, fmt.Errorf("success callback without paymentId")
		}
		return Succeeded(Receipt{PaymentID: cb.PaymentID, OrderRef: cb.OrderRef, Signature: cb.Signature}), nil
	case OutcomeFailure:
		reason := cb.Reason
		if reason == "" {
			reason = "payment failed"
		}
		return Failed(reason), nil
	case OutcomeDismissed:
		return Dismissed(), nil
	default:
		return Result{}, fmt.Errorf("unknown payment status %q", cb.Status)
	}
}
