package list_open_slots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listOpenSlots "github.com/macieste/lesson-booking/internal/usecase/list_open_slots"
	"github.com/macieste/lesson-booking/pkg/logger"
)

type stubUseCase struct {
	got *listOpenSlots.Request
	err error
}

func (s *stubUseCase) Execute(_ context.Context, req *listOpenSlots.Request) (*listOpenSlots.Response, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	return &listOpenSlots.Response{
		TeacherID: req.TeacherID,
		From:      start,
		To:        start.AddDate(0, 0, 7),
		Slots: []listOpenSlots.Slot{
			{ID: uuid.New(), Subject: "Chemistry", ScheduledStart: start, DurationMinutes: 45},
		},
	}, nil
}

func get(h *Handler, teacherID, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/teachers/"+teacherID+"/open-slots?"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"teacherId": teacherID})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_ParsesQuery(t *testing.T) {
	uc := &stubUseCase{}
	h := NewHandler(uc, logger.NewNop())

	rec := get(h, "7", "from=2026-10-20T09:00:00Z&days=7&subject=Chemistry")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), uc.got.TeacherID)
	assert.Equal(t, 7, uc.got.Days)
	require.NotNil(t, uc.got.From)
	require.NotNil(t, uc.got.Subject)
	assert.Equal(t, "Chemistry", *uc.got.Subject)

	var body OpenSlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Slots, 1)
	assert.Equal(t, 45*time.Minute, body.Slots[0].ScheduledEnd.Sub(body.Slots[0].ScheduledStart))
}

func TestHandle_BadRequests(t *testing.T) {
	h := NewHandler(&stubUseCase{}, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, get(h, "abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "7", "from=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "7", "days=week").Code)

	h = NewHandler(&stubUseCase{err: listOpenSlots.ErrInvalidInput}, logger.NewNop())
	assert.Equal(t, http.StatusBadRequest, get(h, "7", "days=1000").Code)
}
