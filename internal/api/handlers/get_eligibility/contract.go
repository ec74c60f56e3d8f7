package get_eligibility

import (
	"context"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

type BookingService interface {
	CheckEligibility(ctx context.Context, id uuid.UUID, userID int64) (*models.EligibilityResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
