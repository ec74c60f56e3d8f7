package cancel_booking

import (
	"strings"

	"github.com/macieste/lesson-booking/internal/service/bookings/models"
	"github.com/macieste/lesson-booking/pkg/ptr"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(userID int64) *models.CancelRequest {
	return &models.CancelRequest{
		UserID: userID,
		Reason: strings.TrimSpace(ptr.Value(r.Reason)),
	}
}
