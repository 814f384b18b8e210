package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("invalid input")
	ErrDiscountInactive      = errors.New("discount is inactive")
	ErrDiscountExpired       = errors.New("discount has expired")
	ErrDiscountUsageExceeded = errors.New("discount usage limit reached")
	ErrOutOfStock            = errors.New("not enough license keys available")
	ErrConcurrencyConflict   = errors.New("concurrent update conflict")
	ErrIllegalTransition     = errors.New("illegal order status transition")
)
