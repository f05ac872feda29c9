package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/rl1809/booking-market/internal/core/domain"
)

const EventOrderPaid = "OrderPaid"

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type OrderPaidPayload struct {
	OrderID         string `json:"order_id"`
	CustomerID      string `json:"customer_id"`
	VendorID        string `json:"vendor_id"`
	SKUID           string `json:"sku_id"`
	Quantity        int    `json:"quantity"`
	TotalCents      int64  `json:"total_cents"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// KafkaPublisher pushes settled-order events through a buffered inbox
// drained by one goroutine, so the settlement path never blocks on
// the broker. Remaining messages are flushed on shutdown.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	service string
	logger  zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic, service string, buf int, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		service: service,
		logger:  logger,
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) drain() {
	close(p.inbox)
	for m := range p.inbox {
		p.write(m)
	}
	_ = p.w.Close()
}

func (p *KafkaPublisher) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.logger.Error().Err(err).Str("key", string(m.Key)).Msg("publish failed")
	}
}

func (p *KafkaPublisher) OrderPaid(o domain.Order) {
	payload, err := json.Marshal(OrderPaidPayload{
		OrderID:         o.ExternalID,
		CustomerID:      o.CustomerID,
		VendorID:        o.VendorID,
		SKUID:           o.SKUID,
		Quantity:        o.Quantity,
		TotalCents:      o.TotalCents,
		PaymentIntentID: o.PaymentIntentID,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("order_id", o.ExternalID).Msg("encode event payload")
		return
	}
	value, err := json.Marshal(Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventOrderPaid,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     p.service,
		Payload:      payload,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("order_id", o.ExternalID).Msg("encode event envelope")
		return
	}

	select {
	case p.inbox <- kafka.Message{Key: []byte(o.ExternalID), Value: value, Time: time.Now()}:
	default:
		// Settlement is durable already; dropping a notification beats
		// blocking the webhook ack.
		p.logger.Warn().Str("order_id", o.ExternalID).Msg("event inbox full, dropping")
	}
}

func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }
