package port

import (
	"context"
	"time"
)

// LockManager hands out short-lived per-SKU reservation leases.
// Acquire is non-blocking: a contended key fails immediately instead
// of waiting for the current holder.
type LockManager interface {
	// Acquire takes the lease for skuID and returns a holder token.
	// The lease auto-expires so a crashed holder cannot wedge the SKU.
	Acquire(ctx context.Context, skuID string, lease time.Duration) (token string, ok bool, err error)

	// Release gives the lease back. Safe to call after expiry or with a
	// token that no longer holds the lock (no-op in both cases).
	Release(ctx context.Context, skuID, token string) error
}
