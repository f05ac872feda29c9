package domain

import "time"

type ReservationStatus string

const (
	ReservationReserved ReservationStatus = "RESERVED"
	ReservationSettled  ReservationStatus = "SETTLED"
)

// Reservation is the per-line snapshot taken at checkout, after the
// capacity decrement succeeded. Settlement builds orders from this
// snapshot only, so later price edits cannot change what was charged.
type Reservation struct {
	PaymentIntentID string
	CustomerID      string
	SKUID           string
	VendorID        string
	Quantity        int
	UnitPriceCents  int64
	Status          ReservationStatus
	CreatedAt       time.Time
}

func (r Reservation) LineTotalCents() int64 {
	return r.UnitPriceCents * int64(r.Quantity)
}
