package list_open_slots

import (
	"errors"
	"net/http"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	listOpenSlots "github.com/macieste/lesson-booking/internal/usecase/list_open_slots"
)

const (
	msgInvalidTeacherID = "некорректный ID преподавателя"
	msgInvalidQuery     = "некорректные параметры запроса"
)

type Handler struct {
	useCase ListOpenSlotsUseCase
	logger  Logger
}

func NewHandler(useCase ListOpenSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/teachers/{teacherId}/open-slots?from=&days=&subject=
// Публичный эндпоинт, авторизация не требуется
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	teacherID, err := handlers.PathInt64(r, "teacherId")
	if err != nil {
		h.logger.Warn("GET /teachers/{id}/open-slots - Invalid teacher ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTeacherID)
		return
	}

	req, err := parseQuery(r, teacherID)
	if err != nil {
		h.logger.Warn("GET /teachers/{id}/open-slots - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, listOpenSlots.ErrInvalidInput):
			h.logger.Warn("GET /teachers/{id}/open-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /teachers/{id}/open-slots - Failed to list slots: teacher_id=%d, error=%v", teacherID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /teachers/{id}/open-slots - Found %d slots: teacher_id=%d", len(result.Slots), teacherID)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
