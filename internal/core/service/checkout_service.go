package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/booking-market/internal/core/domain"
	"github.com/rl1809/booking-market/internal/port"
)

const DefaultLockLease = 10 * time.Second

// CheckoutService turns a customer's cart into a payment intent while
// keeping every SKU's capacity invariant. Locks for all SKUs in the
// cart are taken in ascending SKU-id order before any mutation, so
// checkout is all-or-nothing and two overlapping carts cannot
// deadlock each other.
type CheckoutService struct {
	carts    port.CartRepository
	ledger   port.LedgerRepository
	locks    port.LockManager
	resvs    port.ReservationRepository
	gateway  port.PaymentGateway
	logger   zerolog.Logger
	lease    time.Duration
	currency string
}

func NewCheckoutService(
	carts port.CartRepository,
	ledger port.LedgerRepository,
	locks port.LockManager,
	resvs port.ReservationRepository,
	gateway port.PaymentGateway,
	logger zerolog.Logger,
	lease time.Duration,
	currency string,
) *CheckoutService {
	if lease <= 0 {
		lease = DefaultLockLease
	}
	return &CheckoutService{
		carts:    carts,
		ledger:   ledger,
		locks:    locks,
		resvs:    resvs,
		gateway:  gateway,
		logger:   logger,
		lease:    lease,
		currency: currency,
	}
}

type heldLock struct {
	skuID string
	token string
}

// Checkout reserves capacity for every line in the customer's cart
// and returns the gateway intent the client pays against. Any failure
// after a partial decrement restocks what was taken before returning,
// so a failed checkout is externally invisible.
func (s *CheckoutService) Checkout(ctx context.Context, customerID string) (*domain.PaymentIntent, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].SKUID < items[j].SKUID })

	var held []heldLock
	defer func() {
		// Locks go back on every exit path, success included.
		for i := len(held) - 1; i >= 0; i-- {
			if err := s.locks.Release(ctx, held[i].skuID, held[i].token); err != nil {
				s.logger.Warn().Err(err).Str("sku", held[i].skuID).Msg("lock release failed, lease will expire")
			}
		}
	}()

	var reserved []domain.Reservation
	for _, it := range items {
		token, ok, err := s.locks.Acquire(ctx, it.SKUID, s.lease)
		if err != nil {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("acquire lock for %s: %w", it.SKUID, err)
		}
		if !ok {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("%w: %s", ErrLockContention, it.SKUID)
		}
		held = append(held, heldLock{skuID: it.SKUID, token: token})

		// Re-read under the lock: both capacity and price must be the
		// authoritative values, not whatever the client saw earlier.
		sku, err := s.ledger.GetSKU(ctx, it.SKUID)
		if err != nil {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("refresh sku %s: %w", it.SKUID, err)
		}
		if sku == nil {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, it.SKUID)
		}

		ok, remaining, err := s.ledger.TryDecrement(ctx, it.SKUID, it.Quantity)
		if err != nil {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("decrement %s: %w", it.SKUID, err)
		}
		if !ok {
			s.restock(ctx, reserved)
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, it.SKUID)
		}

		s.logger.Debug().Str("sku", it.SKUID).Int("qty", it.Quantity).Int("remaining", remaining).Msg("capacity reserved")
		reserved = append(reserved, domain.Reservation{
			CustomerID:     customerID,
			SKUID:          sku.ID,
			VendorID:       sku.VendorID,
			Quantity:       it.Quantity,
			UnitPriceCents: sku.PriceCents,
			Status:         domain.ReservationReserved,
		})
	}

	var total int64
	for _, r := range reserved {
		total += r.LineTotalCents()
	}

	intent, err := s.gateway.CreateIntent(ctx, total, s.currency, customerID, reserved)
	if err != nil {
		s.restock(ctx, reserved)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	for i := range reserved {
		reserved[i].PaymentIntentID = intent.ID
	}
	if err := s.resvs.SaveAll(ctx, reserved); err != nil {
		s.restock(ctx, reserved)
		return nil, fmt.Errorf("save reservations: %w", err)
	}

	s.logger.Info().
		Str("customer_id", customerID).
		Str("intent_id", intent.ID).
		Int64("amount_cents", total).
		Int("lines", len(reserved)).
		Msg("checkout reserved")
	return intent, nil
}

// restock is the compensating action: give back every decrement this
// checkout already took. A failed restock leaves capacity leaked and
// is the one condition worth shouting about.
func (s *CheckoutService) restock(ctx context.Context, reserved []domain.Reservation) {
	for _, r := range reserved {
		if err := s.ledger.Restock(ctx, r.SKUID, r.Quantity); err != nil {
			s.logger.Error().Err(err).Str("sku", r.SKUID).Int("qty", r.Quantity).Msg("CRITICAL restock failed")
		}
	}
}
