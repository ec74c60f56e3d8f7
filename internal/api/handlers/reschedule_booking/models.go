package reschedule_booking

import (
	"time"

	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	NewStart *time.Time `json:"newStart" validate:"required"` // RFC3339
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *RescheduleBookingRequest) ToServiceRequest(userID int64) *models.RescheduleRequest {
	return &models.RescheduleRequest{
		UserID:   userID,
		NewStart: r.NewStart.UTC(),
	}
}
