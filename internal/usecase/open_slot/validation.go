package open_slot

import (
	"fmt"
	"strings"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

// validateRequest валидирует и нормализует входные данные запроса
func validateRequest(req *Request) error {
	if req.TeacherID <= 0 {
		return fmt.Errorf("%w: teacherID must be positive", ErrInvalidInput)
	}

	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if len([]rune(req.Subject)) > domain.MaxSubjectLength {
		return fmt.Errorf("%w: subject is longer than %d characters", ErrInvalidInput, domain.MaxSubjectLength)
	}

	if req.Start.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	if req.DurationMinutes == 0 {
		req.DurationMinutes = domain.DefaultDurationMinutes
	}
	if req.DurationMinutes < domain.MinDurationMinutes || req.DurationMinutes > domain.MaxDurationMinutes {
		return fmt.Errorf("%w: durationMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinDurationMinutes, domain.MaxDurationMinutes)
	}

	return nil
}

// validateStart проверяет, что слот начинается в будущем
func validateStart(start, now time.Time) error {
	if !start.After(now) {
		return ErrStartInPast
	}
	return nil
}
