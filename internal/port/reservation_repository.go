package port

import (
	"context"

	"github.com/rl1809/booking-market/internal/core/domain"
)

// ReservationRepository stores the price/vendor snapshot taken at
// checkout so settlement never has to consult live catalog rows.
type ReservationRepository interface {
	SaveAll(ctx context.Context, lines []domain.Reservation) error
	ListByIntent(ctx context.Context, intentID string) ([]domain.Reservation, error)
}
