package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

var (
	// ErrInvalidState возвращается при некорректном состоянии в фильтре
	ErrInvalidState = errors.New("invalid booking state")
)

// Request модели

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	UserID int64
	Reason string
}

// RescheduleRequest запрос на перенос занятия
type RescheduleRequest struct {
	UserID   int64
	NewStart time.Time
}

// GetStudentBookingsRequest запрос на получение бронирований студента
type GetStudentBookingsRequest struct {
	RequesterID int64
	StudentID   int64
	State       *string
}

// GetTeacherBookingsRequest запрос на получение слотов преподавателя
type GetTeacherBookingsRequest struct {
	RequesterID int64
	TeacherID   int64
	State       *string
	From        *time.Time
	To          *time.Time
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                 string     `json:"id"`
	TeacherID          int64      `json:"teacherId"`
	Subject            string     `json:"subject"`
	ScheduledStart     time.Time  `json:"scheduledStart"`
	ScheduledEnd       time.Time  `json:"scheduledEnd"`
	DurationMinutes    int        `json:"durationMinutes"`
	State              string     `json:"state"`
	BookedBy           *int64     `json:"bookedBy,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	RescheduledFrom    *time.Time `json:"rescheduledFrom,omitempty"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// EligibilityResponse что можно сделать с бронированием прямо сейчас
type EligibilityResponse struct {
	BookingID               string    `json:"bookingId"`
	State                   string    `json:"state"`
	ScheduledStart          time.Time `json:"scheduledStart"`
	HoursRemaining          float64   `json:"hoursRemaining"`
	CanCancel               bool      `json:"canCancel"`
	CanReschedule           bool      `json:"canReschedule"`
	CancellationNoticeHours float64   `json:"cancellationNoticeHours"`
	RescheduleNoticeHours   float64   `json:"rescheduleNoticeHours"`
}

// Конвертеры

// FromDomainBooking конвертирует domain.Booking в BookingResponse
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		ID:                 b.ID.String(),
		TeacherID:          b.TeacherID,
		Subject:            b.Subject,
		ScheduledStart:     b.ScheduledStart,
		ScheduledEnd:       b.ScheduledEnd(),
		DurationMinutes:    b.DurationMinutes,
		State:              b.State.String(),
		BookedBy:           b.BookedBy,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		RescheduledFrom:    b.RescheduledFrom,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список бронирований
func FromDomainBookingList(list []*domain.Booking) *BookingListResponse {
	out := make([]BookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, *FromDomainBooking(b))
	}
	return &BookingListResponse{Bookings: out, Total: len(out)}
}

// ToDomainState конвертирует строку в domain.BookingState
func ToDomainState(s string) (domain.BookingState, error) {
	state := domain.BookingState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return state, nil
}
