package domain

import "time"

// SKU is a bookable service variant. Capacity is the number of
// simultaneous bookings the vendor can serve, not a warehouse count.
type SKU struct {
	ID               string
	ServiceID        string
	VendorID         string
	Name             string
	PriceCents       int64
	Capacity         int
	EstimatedMinutes int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
