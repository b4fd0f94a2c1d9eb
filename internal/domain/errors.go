package domain

import (
	"errors"
	"fmt"
)

// Error classes. Concrete errors wrap one of these so callers can branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrCouponNotFound     = fmt.Errorf("coupon not found: %w", ErrNotFound)
	ErrCouponUnusable     = fmt.Errorf("coupon expired or inactive: %w", ErrInvalid)
	ErrCouponExceedsTotal = fmt.Errorf("order total must exceed coupon amount: %w", ErrInvalid)
	ErrCouponNotOwned     = fmt.Errorf("coupon belongs to another user: %w", ErrInvalid)

	ErrProductNotFound = fmt.Errorf("product not found: %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order not found: %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user not found: %w", ErrNotFound)

	ErrEmptyItems       = fmt.Errorf("at least one item is required: %w", ErrInvalid)
	ErrBadQuantity      = fmt.Errorf("quantity must be at least 1: %w", ErrInvalid)
	ErrBadRating        = fmt.Errorf("rate must be 1-5: %w", ErrInvalid)
	ErrPasswordMismatch = fmt.Errorf("password fields didn't match: %w", ErrInvalid)
	ErrBadStatus        = fmt.Errorf("status transition not allowed: %w", ErrInvalid)
	ErrBadCredentials   = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrDuplicateReview  = fmt.Errorf("review already exists: %w", ErrConflict)
	ErrDuplicateUser    = fmt.Errorf("username or email already taken: %w", ErrConflict)
	ErrStatusMismatch   = fmt.Errorf("status changed concurrently: %w", ErrConflict)
)
