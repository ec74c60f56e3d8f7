package open_slot

import (
	"errors"
	"net/http"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	openSlot "github.com/macieste/lesson-booking/internal/usecase/open_slot"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgStartInPast        = "слот должен начинаться в будущем"
	msgSlotOverlap        = "слот пересекается с другим вашим слотом"
)

type Handler struct {
	useCase OpenSlotUseCase
	logger  Logger
}

func NewHandler(useCase OpenSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/slots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req OpenSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if details := handlers.Validate(&req); details != nil {
		h.logger.Warn("POST /slots - Validation failed: teacher_id=%d, fields=%v", teacherID, details)
		handlers.RespondErrorWithDetails(w, http.StatusBadRequest, msgInvalidRequestBody, details)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(teacherID))
	if err != nil {
		switch {
		case errors.Is(err, openSlot.ErrInvalidInput):
			h.logger.Warn("POST /slots - Invalid input: teacher_id=%d, error=%v", teacherID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, openSlot.ErrStartInPast):
			h.logger.Warn("POST /slots - Start in past: teacher_id=%d", teacherID)
			handlers.RespondBadRequest(w, msgStartInPast)

		case errors.Is(err, openSlot.ErrSlotOverlap):
			h.logger.Warn("POST /slots - Overlap: teacher_id=%d, error=%v", teacherID, err)
			handlers.RespondConflict(w, msgSlotOverlap)

		default:
			h.logger.Error("POST /slots - Failed to open slot: teacher_id=%d, error=%v", teacherID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots - Slot opened: slot_id=%s, teacher_id=%d", result.ID, teacherID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
