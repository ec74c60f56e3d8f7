package cancel_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

type BookingService interface {
	CancelByID(ctx context.Context, id uuid.UUID, req *models.CancelRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
