package reschedule_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnauthorized       = "пользователь не определён"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgTooLate            = "перенести занятие можно не позднее чем за %s ч. до начала"
	msgTooLateGeneric     = "срок для переноса занятия истёк"
	msgSlotOverlap        = "новое время пересекается с другим занятием преподавателя"
	msgInvalidNewStart    = "новое время начала должно быть в будущем и отличаться от текущего"
	msgInvalidState       = "бронирование в текущем состоянии нельзя перенести"
	msgConflict           = "бронирование было изменено, повторите запрос"
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

// Handle PATCH /api/v1/bookings/{bookingId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if details := handlers.Validate(&req); details != nil {
		handlers.RespondErrorWithDetails(w, http.StatusBadRequest, msgInvalidRequestBody, details)
		return
	}

	result, err := h.service.RescheduleByID(r.Context(), bookingID, req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIneligibleAction):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Too late: booking_id=%s, user_id=%d", bookingID, userID)
			handlers.RespondIneligible(w, msgTooLate, msgTooLateGeneric, err)

		case errors.Is(err, domain.ErrInvalidReschedule):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid new start: booking_id=%s", bookingID)
			handlers.RespondBadRequest(w, msgInvalidNewStart)

		case errors.Is(err, domain.ErrInvalidStateTransition):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Invalid state: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgInvalidState)

		case errors.Is(err, bookings.ErrSlotOverlap):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Slot overlap: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgSlotOverlap)

		case errors.Is(err, domain.ErrConcurrentModification):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Concurrent modification: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, domain.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/reschedule - Access denied: booking_id=%s, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("PATCH /bookings/{id}/reschedule - Failed to reschedule booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/reschedule - Booking rescheduled: booking_id=%s, new_start=%s",
		bookingID, result.ScheduledStart.Format(time.RFC3339))
	handlers.RespondJSON(w, http.StatusOK, result)
}
