package service

import (
	"context"
	"fmt"

	"github.com/rl1809/booking-market/internal/core/domain"
	"github.com/rl1809/booking-market/internal/port"
)

// CartService covers the keyed-map cart mechanics. No locking here:
// carts are customer-scoped and nothing cross-customer ever reads
// them.
type CartService struct {
	carts  port.CartRepository
	ledger port.LedgerRepository
}

func NewCartService(carts port.CartRepository, ledger port.LedgerRepository) *CartService {
	return &CartService{carts: carts, ledger: ledger}
}

func (s *CartService) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.carts.Get(ctx, customerID)
}

// AddItem adds quantity to the customer's line for the SKU, rejecting
// SKUs the catalog does not have.
func (s *CartService) AddItem(ctx context.Context, customerID, skuID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	sku, err := s.ledger.GetSKU(ctx, skuID)
	if err != nil {
		return fmt.Errorf("lookup sku %s: %w", skuID, err)
	}
	if sku == nil {
		return fmt.Errorf("%w: %s", ErrSKUNotFound, skuID)
	}
	return s.carts.UpsertItem(ctx, customerID, skuID, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, skuID string) error {
	return s.carts.RemoveItem(ctx, customerID, skuID)
}
