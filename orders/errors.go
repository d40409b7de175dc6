package orders

import "errors"

// ErrNotFound is returned when the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// InvalidRequestError is a rejected checkout or status request. The message
// is safe to show the customer.
type InvalidRequestError struct {
	Msg string
}

func (e *InvalidRequestError) Error() string { return e.Msg }

func invalid(msg string) error { return &InvalidRequestError{Msg: msg} }

// InsufficientStockError names the line the storefront cannot fulfil.
type InsufficientStockError struct {
	Msg string
}

func (e *InsufficientStockError) Error() string { return e.Msg }

// ConflictError signals a retryable write collision, e.g. a duplicate order
// number during a day rollover.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }
