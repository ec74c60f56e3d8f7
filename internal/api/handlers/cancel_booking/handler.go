package cancel_booking

import (
	"errors"
	"net/http"

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
	msgTooLate            = "отменить занятие можно не позднее чем за %s ч. до начала"
	msgTooLateGeneric     = "срок для отмены занятия истёк"
	msgInvalidState       = "бронирование в текущем состоянии нельзя отменить"
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

// Handle PATCH /api/v1/bookings/{bookingId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := handlers.PathUUID(r, "bookingId")
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CancelBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if details := handlers.Validate(&req); details != nil {
		handlers.RespondErrorWithDetails(w, http.StatusBadRequest, msgInvalidRequestBody, details)
		return
	}

	result, err := h.service.CancelByID(r.Context(), bookingID, req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIneligibleAction):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Too late: booking_id=%s, user_id=%d", bookingID, userID)
			handlers.RespondIneligible(w, msgTooLate, msgTooLateGeneric, err)

		case errors.Is(err, domain.ErrInvalidStateTransition):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid state: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgInvalidState)

		case errors.Is(err, domain.ErrConcurrentModification):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Concurrent modification: booking_id=%s", bookingID)
			handlers.RespondConflict(w, msgConflict)

		case errors.Is(err, domain.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/cancel - Access denied: booking_id=%s, user_id=%d", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("PATCH /bookings/{id}/cancel - Failed to cancel booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/cancel - Booking cancelled: booking_id=%s, user_id=%d", bookingID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
