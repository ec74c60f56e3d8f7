package bookinggorm

import (
	"time"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
)

// BookingModel GORM модель таблицы bookings
type BookingModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TeacherID          int64      `gorm:"not null;index:idx_bookings_teacher_start,priority:1"`
	Subject            string     `gorm:"not null;size:120"`
	ScheduledStart     time.Time  `gorm:"not null;index:idx_bookings_teacher_start,priority:2"`
	DurationMinutes    int        `gorm:"not null;default:60"`
	State              string     `gorm:"not null;size:20;index"`
	BookedBy           *int64     `gorm:"index"`
	CancelledAt        *time.Time `gorm:""`
	CancellationReason *string    `gorm:"type:text"`
	RescheduledFrom    *time.Time `gorm:""`
	Version            int64      `gorm:"not null;default:1"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName имя таблицы совпадает с SQL миграциями
func (BookingModel) TableName() string {
	return "bookings"
}

func toModel(b *domain.Booking) BookingModel {
	return BookingModel{
		ID:                 b.ID,
		TeacherID:          b.TeacherID,
		Subject:            b.Subject,
		ScheduledStart:     b.ScheduledStart.UTC(),
		DurationMinutes:    b.DurationMinutes,
		State:              string(b.State),
		BookedBy:           b.BookedBy,
		CancelledAt:        utcPtr(b.CancelledAt),
		CancellationReason: b.CancellationReason,
		RescheduledFrom:    utcPtr(b.RescheduledFrom),
		Version:            b.Version,
		CreatedAt:          b.CreatedAt.UTC(),
		UpdatedAt:          b.UpdatedAt.UTC(),
	}
}

func (m BookingModel) toDomain() (*domain.Booking, error) {
	state := domain.BookingState(m.State)
	if !state.IsValid() {
		return nil, ErrInvalidState
	}
	return &domain.Booking{
		ID:                 m.ID,
		TeacherID:          m.TeacherID,
		Subject:            m.Subject,
		ScheduledStart:     m.ScheduledStart.UTC(),
		DurationMinutes:    m.DurationMinutes,
		State:              state,
		BookedBy:           m.BookedBy,
		CancelledAt:        utcPtr(m.CancelledAt),
		CancellationReason: m.CancellationReason,
		RescheduledFrom:    utcPtr(m.RescheduledFrom),
		Version:            m.Version,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
