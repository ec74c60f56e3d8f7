package get_teacher_bookings

import (
	"errors"
	"net/http"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/service/bookings"
)

const (
	msgInvalidTeacherID = "некорректный ID преподавателя"
	msgMissingUserID    = "отсутствует ID пользователя"
	msgForbidden        = "можно просматривать только свои слоты"
	msgInvalidQuery     = "некорректные параметры запроса, from и to ожидаются в RFC3339"
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

// Handle GET /api/v1/teachers/{teacherId}/bookings?state=&from=&to=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	teacherID, err := handlers.PathInt64(r, "teacherId")
	if err != nil {
		h.logger.Warn("GET /teachers/{id}/bookings - Invalid teacher ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTeacherID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req, err := parseQuery(r, teacherID, userID)
	if err != nil {
		h.logger.Warn("GET /teachers/{id}/bookings - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetTeacherBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /teachers/{id}/bookings - Access denied: teacher_id=%d, user_id=%d", teacherID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("GET /teachers/{id}/bookings - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidState)

		default:
			h.logger.Error("GET /teachers/{id}/bookings - Failed to get bookings: teacher_id=%d, error=%v", teacherID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /teachers/{id}/bookings - Retrieved %d bookings: teacher_id=%d", result.Total, teacherID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
