package checkout

// State is where a checkout attempt stands.
type State string

const (
	StateCollectingBilling State = "collecting_billing"
	StateAwaitingPayment   State = "awaiting_payment_confirmation"
	StateConfirmed         State = "confirmed"
	StateAbandoned         State = "abandoned"
)

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateAbandoned
}
