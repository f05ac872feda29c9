package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var ErrIllegalTransition = errors.New("illegal order status transition")

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusPaid: true, OrderStatusCancelled: true},
	OrderStatusPaid:       {OrderStatusProcessing: true, OrderStatusFailed: true, OrderStatusCancelled: true},
	OrderStatusProcessing: {OrderStatusCompleted: true, OrderStatusFailed: true},
	OrderStatusCompleted:  {},
	OrderStatusFailed:     {},
	OrderStatusCancelled:  {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

type Order struct {
	ID              int64
	ExternalID      string
	CustomerID      string
	VendorID        string
	SKUID           string
	Quantity        int
	Status          OrderStatus
	TotalCents      int64
	PaymentIntentID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TransitionTo moves the order along a legal edge. Anything not in
// the table is rejected outright; the status is never clamped.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !CanTransition(o.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}
