package get_student_bookings

import (
	"errors"
	"net/http"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/service/bookings"
	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

const (
	msgInvalidStudentID = "некорректный ID студента"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "можно просматривать только свои бронирования"
	msgInvalidState     = "некорректный фильтр состояния"
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

// Handle GET /api/v1/students/{studentId}/bookings?state=booked
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	studentID, err := handlers.PathInt64(r, "studentId")
	if err != nil {
		h.logger.Warn("GET /students/{id}/bookings - Invalid student ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStudentID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	result, err := h.service.GetStudentBookings(r.Context(), &models.GetStudentBookingsRequest{
		RequesterID: userID,
		StudentID:   studentID,
		State:       handlers.QueryString(r, "state"),
	})
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /students/{id}/bookings - Access denied: student_id=%d, user_id=%d", studentID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /students/{id}/bookings - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidState)

		default:
			h.logger.Error("GET /students/{id}/bookings - Failed to get bookings: student_id=%d, error=%v", studentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /students/{id}/bookings - Retrieved %d bookings: student_id=%d", result.Total, studentID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
