package domain

// PaymentIntent is the gateway-issued handle for a checkout attempt.
// Opaque to the engine beyond the fields needed to correlate the
// webhook back to the reserved lines.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	CustomerID   string
}
