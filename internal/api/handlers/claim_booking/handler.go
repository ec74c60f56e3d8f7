package claim_booking

import (
	"errors"
	"net/http"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/service/bookings"
)

const (
	msgInvalidBookingID = "некорректный ID слота"
	msgUnauthorized     = "пользователь не определён"
	msgNotFound         = "слот не найден"
	msgForbidden        = "преподаватель не может записаться на собственный слот"
	msgNotAvailable     = "слот уже занят или закрыт"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/claim
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/claim - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	studentID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	result, err := h.service.ClaimByID(r.Context(), bookingID, studentID)
	if err != nil {
		switch {
		// Проигравший гонку за слот видит тот же ответ, что и при занятом слоте
		case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrConcurrentModification):
			h.logger.Warn("POST /bookings/{id}/claim - Slot not available: booking_id=%s, student_id=%d", bookingID, studentID)
			handlers.RespondConflict(w, msgNotAvailable)

		case errors.Is(err, domain.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/claim - Slot not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("POST /bookings/{id}/claim - Access denied: booking_id=%s, student_id=%d", bookingID, studentID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("POST /bookings/{id}/claim - Failed to claim slot: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/claim - Slot claimed: booking_id=%s, student_id=%d", bookingID, studentID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
