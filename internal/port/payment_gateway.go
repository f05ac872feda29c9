package port

import (
	"context"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// PaymentGateway is the slice of the external processor the engine
// needs: mint an intent, authenticate a webhook.
type PaymentGateway interface {
	// CreateIntent asks the gateway for a payment intent covering the
	// aggregate amount, tagged with the customer so settlement can be
	// correlated back. The call is bounded by the client's timeout.
	CreateIntent(ctx context.Context, amountCents int64, currency, customerID string, lines []domain.Reservation) (*domain.PaymentIntent, error)

	// VerifySignature authenticates a webhook delivery against the
	// shared endpoint secret. A non-nil error means the payload must
	// not be processed.
	VerifySignature(payload []byte, sigHeader string) error
}
