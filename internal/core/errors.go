package core

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentIncomplete   = errors.New("payment is not completed")
	ErrNoFile              = errors.New("order has no file to print")
	ErrInvalidTransition   = errors.New("invalid print status transition")
	ErrLeaseHeld           = errors.New("order is already leased by another worker")
	ErrLeaseNotHeld        = errors.New("worker does not hold the lease on this order")
	ErrNoPrinterConfigured = errors.New("no printer configured")
	ErrRequiresAdmin       = errors.New("order requires admin action")
	ErrConcurrentUpdate    = errors.New("order was modified concurrently, try again")
	ErrPrinterNotFound     = errors.New("printer not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// TransitionError reports a print status change rejected by ValidateTransition.
type TransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidTransition.Error(), e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
