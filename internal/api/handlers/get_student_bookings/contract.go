package get_student_bookings

import (
	"context"

	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

type BookingService interface {
	GetStudentBookings(ctx context.Context, req *models.GetStudentBookingsRequest) (*models.BookingListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
