package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOrderNotFound     = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrLineNotFound      = fmt.Errorf("cart line %w", ErrNotFound)
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidCoupon     = errors.New("invalid coupon code")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidCard       = errors.New("invalid card details")
	ErrInvalidUPI        = errors.New("invalid UPI ID")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrNotPayable        = errors.New("order is not awaiting payment")
	ErrNotLoggedIn       = errors.New("login required")
	ErrInvalidProduct    = errors.New("invalid product listing")
	ErrForbidden         = errors.New("forbidden")
	ErrBadCreds          = errors.New("invalid email or password")
	ErrEmailTaken        = errors.New("email already in use")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnavailable       = errors.New("service unavailable")
)

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Err   error
	Msg   string
}

func (e *FieldError) Error() string {
	if e.Msg != "" {
		return e.Field + ": " + e.Msg
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

func NewFieldError(field string, err error, msg string) *FieldError {
	return &FieldError{Field: field, Err: err, Msg: msg}
}
