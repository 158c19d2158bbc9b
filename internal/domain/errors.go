package domain

import "errors"

// Operational errors. Callers wrap them with detail via fmt.Errorf("%w: ...").
var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")

	ErrEmptyCart                 = errors.New("cart is empty")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrProductNotFound           = errors.New("product not found")
	ErrOrderNotFound             = errors.New("order not found")
	ErrCartItemNotFound          = errors.New("cart item not found")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrNotCancellable            = errors.New("order cannot be cancelled")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrAlreadyCancelled          = errors.New("order is already cancelled")
	ErrNotAuthorized             = errors.New("not authorized")

	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrAccountSuspended is returned for blocked users at login and on every protected route.
	ErrAccountSuspended = errors.New("account suspended due to suspicious activity")
)
