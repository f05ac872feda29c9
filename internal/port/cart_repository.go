package port

import (
	"context"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// CartRepository stores one cart per customer. Carts are created
// lazily on first write.
type CartRepository interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)

	// UpsertItem adds quantity to the customer's line for the SKU,
	// creating cart and line as needed.
	UpsertItem(ctx context.Context, customerID, skuID string, quantity int) error

	RemoveItem(ctx context.Context, customerID, skuID string) error
}
