package list_open_slots

import (
	"fmt"
	"strings"

	"github.com/macieste/lesson-booking/internal/domain"
)

// validateRequest валидирует входные данные и подставляет значения по умолчанию
func validateRequest(req *Request) error {
	if req.TeacherID <= 0 {
		return fmt.Errorf("%w: teacherID must be positive", ErrInvalidInput)
	}

	if req.Days == 0 {
		req.Days = domain.DefaultOpenSlotsWindowDays
	}
	if req.Days < 0 || req.Days > domain.MaxOpenSlotsWindowDays {
		return fmt.Errorf("%w: days must be between 1 and %d", ErrInvalidInput, domain.MaxOpenSlotsWindowDays)
	}

	if req.Subject != nil {
		subject := strings.TrimSpace(*req.Subject)
		if subject == "" {
			req.Subject = nil
		} else {
			req.Subject = &subject
		}
	}

	return nil
}
