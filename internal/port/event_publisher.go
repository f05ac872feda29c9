package port

import "github.com/rl1809/booking-market/internal/core/domain"

// EventPublisher announces settled orders to downstream consumers
// (notifications, vendor dashboards). Fire-and-forget: settlement is
// already durable before anything is published.
type EventPublisher interface {
	OrderPaid(order domain.Order)
}
