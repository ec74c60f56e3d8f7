package get_teacher_bookings

import (
	"net/http"
	"time"

	"github.com/macieste/lesson-booking/internal/api/handlers"
	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

// parseQuery читает state, from и to из query параметров; from и to в RFC3339
func parseQuery(r *http.Request, teacherID, requesterID int64) (*models.GetTeacherBookingsRequest, error) {
	req := &models.GetTeacherBookingsRequest{
		RequesterID: requesterID,
		TeacherID:   teacherID,
		State:       handlers.QueryString(r, "state"),
	}

	var err error
	if req.From, err = parseTime(handlers.QueryString(r, "from")); err != nil {
		return nil, err
	}
	if req.To, err = parseTime(handlers.QueryString(r, "to")); err != nil {
		return nil, err
	}
	return req, nil
}

func parseTime(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
