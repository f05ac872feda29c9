package port

import (
	"context"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// OrderRepository persists orders and settles payment intents.
type OrderRepository interface {
	// SettleIntent atomically creates one paid order per reservation
	// line, marks the lines settled, and empties the customer's cart,
	// all in one transaction. Redelivery of an already-settled intent
	// returns first=false with no mutation; the dedup key is a
	// uniqueness constraint on (payment_intent_id, sku_id), so two
	// concurrent deliveries of the same intent cannot both win.
	SettleIntent(ctx context.Context, customerID, intentID string, lines []domain.Reservation) (created []domain.Order, first bool, err error)

	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)

	// GetByExternalID looks an order up by its exposed id.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error)

	// UpdateStatus persists a status already validated by the state
	// machine. The previous status is part of the WHERE clause so a
	// concurrent transition cannot be overwritten.
	UpdateStatus(ctx context.Context, externalID string, from, to domain.OrderStatus) error
}
