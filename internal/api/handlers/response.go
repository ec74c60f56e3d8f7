package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/macieste/lesson-booking/internal/domain"
)

const msgInternalError = "внутренняя ошибка сервера"

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RespondJSON пишет data в формате JSON; при data == nil тело пустое
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError пишет ошибку с кодом status
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// RespondErrorWithDetails пишет ошибку с дополнительными полями
func RespondErrorWithDetails(w http.ResponseWriter, status int, message string, details map[string]interface{}) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message, Details: details})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondIneligible отвечает 422 и сообщает, сколько часов осталось и сколько требуется
// format содержит один %s для требуемого числа часов; fallback используется, если err
// не несёт IneligibleActionError
func RespondIneligible(w http.ResponseWriter, format, fallback string, err error) {
	var ineligible *domain.IneligibleActionError
	if !errors.As(err, &ineligible) {
		RespondError(w, http.StatusUnprocessableEntity, fallback)
		return
	}
	message := fmt.Sprintf(format, strconv.FormatFloat(ineligible.RequiredHours, 'f', -1, 64))
	RespondErrorWithDetails(w, http.StatusUnprocessableEntity, message, map[string]interface{}{
		"action":         ineligible.Action.String(),
		"hoursRemaining": ineligible.HoursRemaining,
		"requiredHours":  ineligible.RequiredHours,
	})
}

// DecodeJSON декодирует тело запроса; пустое тело не считается ошибкой
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
