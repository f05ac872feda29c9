package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rl1809/booking-market/internal/core/domain"
	"github.com/rl1809/booking-market/internal/port"
)

// OrderService is the out-of-band order surface: listing, and manual
// status transitions (ops moving a paid order through processing to
// completed, or cancelling). The webhook path never comes through
// here.
type OrderService struct {
	orders port.OrderRepository
	logger zerolog.Logger
}

func NewOrderService(orders port.OrderRepository, logger zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// Transition applies one state-machine edge to an order. An edge not
// in the table is rejected with domain.ErrIllegalTransition and the
// stored status is left untouched.
func (s *OrderService) Transition(ctx context.Context, externalID string, next domain.OrderStatus) (*domain.Order, error) {
	order, err := s.orders.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", externalID, err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, externalID)
	}

	from := order.Status
	if err := order.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, externalID, from, next); err != nil {
		return nil, fmt.Errorf("persist status %s: %w", externalID, err)
	}

	s.logger.Info().
		Str("order_id", externalID).
		Str("from", string(from)).
		Str("to", string(next)).
		Msg("order status changed")
	return order, nil
}
