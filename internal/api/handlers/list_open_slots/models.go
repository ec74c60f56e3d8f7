package list_open_slots

import (
	"net/http"
	"strconv"
	"time"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	listOpenSlots "github.com/macieste/lesson-booking/internal/usecase/list_open_slots"
)

// OpenSlotsResponse HTTP response model
type OpenSlotsResponse struct {
	TeacherID int64          `json:"teacherId"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Slots     []SlotResponse `json:"slots"`
}

// SlotResponse свободный слот
type SlotResponse struct {
	ID              string    `json:"id"`
	Subject         string    `json:"subject"`
	ScheduledStart  time.Time `json:"scheduledStart"`
	ScheduledEnd    time.Time `json:"scheduledEnd"`
	DurationMinutes int       `json:"durationMinutes"`
}

// parseQuery читает from (RFC3339), days и subject
func parseQuery(r *http.Request, teacherID int64) (*listOpenSlots.Request, error) {
	req := &listOpenSlots.Request{
		TeacherID: teacherID,
		Subject:   handlers.QueryString(r, "subject"),
	}

	if from := handlers.QueryString(r, "from"); from != nil {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, err
		}
		req.From = &t
	}

	if days := handlers.QueryString(r, "days"); days != nil {
		n, err := strconv.Atoi(*days)
		if err != nil {
			return nil, err
		}
		req.Days = n
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *listOpenSlots.Response) *OpenSlotsResponse {
	slots := make([]SlotResponse, 0, len(resp.Slots))
	for _, s := range resp.Slots {
		slots = append(slots, SlotResponse{
			ID:              s.ID.String(),
			Subject:         s.Subject,
			ScheduledStart:  s.ScheduledStart,
			ScheduledEnd:    s.ScheduledStart.Add(time.Duration(s.DurationMinutes) * time.Minute),
			DurationMinutes: s.DurationMinutes,
		})
	}

	return &OpenSlotsResponse{
		TeacherID: resp.TeacherID,
		From:      resp.From,
		To:        resp.To,
		Slots:     slots,
	}
}
