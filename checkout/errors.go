package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutNotFound   = errors.New("checkout not found")
	ErrCheckoutInProgress = errors.New("a payment for this cart is already in progress")
)

// MissingFieldError names the first billing field that failed validation.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// TransitionError is returned when an operation is not allowed in the
// checkout's current state.
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while checkout is %s", e.Op, e.State)
}
