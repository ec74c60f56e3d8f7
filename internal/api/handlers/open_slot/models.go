package open_slot

import (
	"time"

	openSlot "github.com/macieste/lesson-booking/internal/usecase/open_slot"
)

// OpenSlotRequest HTTP request model
type OpenSlotRequest struct {
	Subject         string     `json:"subject" validate:"required,notblank,max=120"`
	Start           *time.Time `json:"start" validate:"required"` // RFC3339
	DurationMinutes int        `json:"durationMinutes,omitempty" validate:"omitempty,min=15,max=480"`
}

// SlotResponse HTTP response model
type SlotResponse struct {
	ID              string    `json:"id"`
	TeacherID       int64     `json:"teacherId"`
	Subject         string    `json:"subject"`
	ScheduledStart  time.Time `json:"scheduledStart"`
	ScheduledEnd    time.Time `json:"scheduledEnd"`
	DurationMinutes int       `json:"durationMinutes"`
	State           string    `json:"state"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *OpenSlotRequest) ToUseCaseRequest(teacherID int64) *openSlot.Request {
	return &openSlot.Request{
		TeacherID:       teacherID,
		Subject:         r.Subject,
		Start:           r.Start.UTC(),
		DurationMinutes: r.DurationMinutes,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *openSlot.Response) *SlotResponse {
	return &SlotResponse{
		ID:              resp.ID.String(),
		TeacherID:       resp.TeacherID,
		Subject:         resp.Subject,
		ScheduledStart:  resp.ScheduledStart,
		ScheduledEnd:    resp.ScheduledStart.Add(time.Duration(resp.DurationMinutes) * time.Minute),
		DurationMinutes: resp.DurationMinutes,
		State:           resp.State,
		Version:         resp.Version,
		CreatedAt:       resp.CreatedAt,
	}
}
