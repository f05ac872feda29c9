package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rl1809/booking-market/internal/port"
)

const eventIntentSucceeded = "payment_intent.succeeded"

// gatewayEvent mirrors the slice of the webhook payload the engine
// needs; everything else in the event is ignored.
type gatewayEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Metadata struct {
				CustomerID string `json:"customer_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// SettlementService turns a confirmed payment event into durable paid
// orders, exactly once per intent no matter how many times the
// gateway redelivers. Stock is not touched here: the decrement
// already happened at checkout.
type SettlementService struct {
	gateway port.PaymentGateway
	resvs   port.ReservationRepository
	orders  port.OrderRepository
	events  port.EventPublisher
	logger  zerolog.Logger
}

func NewSettlementService(
	gateway port.PaymentGateway,
	resvs port.ReservationRepository,
	orders port.OrderRepository,
	events port.EventPublisher,
	logger zerolog.Logger,
) *SettlementService {
	return &SettlementService{
		gateway: gateway,
		resvs:   resvs,
		orders:  orders,
		events:  events,
		logger:  logger,
	}
}

// HandleWebhook authenticates and settles one gateway delivery.
// Returns nil for both first settlement and duplicates; the gateway
// only needs to know whether to stop redelivering.
func (s *SettlementService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := s.gateway.VerifySignature(payload, sigHeader); err != nil {
		s.logger.Warn().Err(err).Msg("webhook rejected: bad signature")
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var ev gatewayEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode webhook event: %w", err)
	}
	if ev.Type != eventIntentSucceeded {
		s.logger.Debug().Str("type", ev.Type).Msg("ignoring webhook event type")
		return nil
	}

	intentID := ev.Data.Object.ID
	customerID := ev.Data.Object.Metadata.CustomerID
	if intentID == "" || customerID == "" {
		return fmt.Errorf("webhook event %s missing intent or customer id", ev.ID)
	}

	lines, err := s.resvs.ListByIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("load reservations for %s: %w", intentID, err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownIntent, intentID)
	}

	created, first, err := s.orders.SettleIntent(ctx, customerID, intentID, lines)
	if err != nil {
		return fmt.Errorf("settle intent %s: %w", intentID, err)
	}
	if !first {
		// Redelivery. Orders already exist; acking again is the
		// contract, not an error.
		s.logger.Info().Str("intent_id", intentID).Msg("duplicate settlement, no-op")
		return nil
	}

	for _, o := range created {
		s.events.OrderPaid(o)
	}
	s.logger.Info().
		Str("intent_id", intentID).
		Str("customer_id", customerID).
		Int("orders", len(created)).
		Msg("intent settled")
	return nil
}
