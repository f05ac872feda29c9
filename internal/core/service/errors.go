package service

import "errors"

var (
	// ErrEmptyCart: checkout requested with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSKUNotFound: a cart line references a SKU the catalog no
	// longer has.
	ErrSKUNotFound = errors.New("sku not found")

	// ErrLockContention: another checkout holds the SKU's reservation
	// lease. Retryable by the user, never retried internally.
	ErrLockContention = errors.New("sku is contended, try again")

	// ErrInsufficientStock: capacity ran out at the atomic check.
	// Terminal for this attempt; the cart must be re-edited.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrGatewayUnavailable: the payment gateway call failed or timed
	// out after the decrement; the reservation was restocked.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidSignature: webhook payload failed authentication.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrUnknownIntent: webhook references an intent this system never
	// reserved anything for.
	ErrUnknownIntent = errors.New("unknown payment intent")

	// ErrOrderNotFound is returned by order lookups and transitions.
	ErrOrderNotFound = errors.New("order not found")
)
