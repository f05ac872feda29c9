package port

import (
	"context"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// LedgerRepository is the authoritative capacity counter per SKU.
// All mutations are single atomic statements relative to concurrent
// transactions on the same row; callers hold the SKU's reservation
// lock around the read-decide-decrement sequence.
type LedgerRepository interface {
	// TryDecrement reserves quantity units of the SKU. The check and
	// the decrement are one atomic operation: it fails without mutating
	// anything when capacity < quantity at the moment of the check.
	TryDecrement(ctx context.Context, skuID string, quantity int) (ok bool, remaining int, err error)

	// Restock reverses a decrement (compensation after a later
	// checkout step failed).
	Restock(ctx context.Context, skuID string, quantity int) error

	// GetSKU re-reads the authoritative row, price included. Called
	// under the lock so the returned price is the one charged.
	GetSKU(ctx context.Context, skuID string) (*domain.SKU, error)
}
