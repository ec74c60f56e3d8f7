package get_teacher_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/service/bookings"
	"github.com/macieste/lesson-booking/internal/service/bookings/models"
	"github.com/macieste/lesson-booking/pkg/logger"
)

type stubService struct {
	got *models.GetTeacherBookingsRequest
	err error
}

func (s *stubService) GetTeacherBookings(_ context.Context, req *models.GetTeacherBookingsRequest) (*models.BookingListResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.BookingListResponse{Bookings: []models.BookingResponse{}}, nil
}

func get(h *Handler, query string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/teachers/7/bookings?"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"teacherId": "7"})
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_PassesFilters(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, logger.NewNop())

	rec := get(h, "state=booked&from=2026-10-01T00:00:00Z&to=2026-11-01T00:00:00%2B03:00", 7)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.got.RequesterID)
	require.NotNil(t, svc.got.State)
	assert.Equal(t, "booked", *svc.got.State)
	require.NotNil(t, svc.got.To)
	assert.Equal(t, time.Date(2026, 10, 31, 21, 0, 0, 0, time.UTC), *svc.got.To)
}

func TestHandle_Errors(t *testing.T) {
	h := NewHandler(&stubService{}, logger.NewNop())
	assert.Equal(t, http.StatusBadRequest, get(h, "from=tomorrow", 7).Code)

	h = NewHandler(&stubService{err: bookings.ErrAccessDenied}, logger.NewNop())
	assert.Equal(t, http.StatusForbidden, get(h, "", 8).Code)

	h = NewHandler(&stubService{err: bookings.ErrInvalidInput}, logger.NewNop())
	assert.Equal(t, http.StatusBadRequest, get(h, "state=lost", 7).Code)
}
