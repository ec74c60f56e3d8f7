package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingState represents the lifecycle state of a lesson booking
type BookingState string

const (
	StatePending     BookingState = "pending"
	StateBooked      BookingState = "booked"
	StateRescheduled BookingState = "rescheduled"
	StateCancelled   BookingState = "cancelled"
	StateCompleted   BookingState = "completed"
)

// AllStates lists every known booking state
var AllStates = []BookingState{
	StatePending,
	StateBooked,
	StateRescheduled,
	StateCancelled,
	StateCompleted,
}

// IsValid returns true if the state is a recognized booking state
func (s BookingState) IsValid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this state
func (s BookingState) IsTerminal() bool {
	return s == StateCancelled || s == StateCompleted
}

// IsHeld returns true if a student holds the slot in this state
func (s BookingState) IsHeld() bool {
	return s == StateBooked || s == StateRescheduled
}

func (s BookingState) String() string {
	return string(s)
}

// Booking represents a teacher's lesson slot and, once claimed, the student's reservation of it
type Booking struct {
	ID              uuid.UUID
	TeacherID       int64
	Subject         string
	ScheduledStart  time.Time
	DurationMinutes int
	State           BookingState
	BookedBy        *int64 // student holding the slot; set only while booked or rescheduled

	CancelledAt        *time.Time
	CancellationReason *string
	RescheduledFrom    *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSlot creates a pending booking for a teacher's newly opened slot
func NewSlot(teacherID int64, subject string, start time.Time, durationMinutes int) *Booking {
	return &Booking{
		ID:              uuid.New(),
		TeacherID:       teacherID,
		Subject:         subject,
		ScheduledStart:  start.UTC(),
		DurationMinutes: durationMinutes,
		State:           StatePending,
		Version:         InitialVersion,
	}
}

// ScheduledEnd returns the time the lesson ends
func (b *Booking) ScheduledEnd() time.Time {
	return b.ScheduledStart.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsActive returns true if the slot still occupies the teacher's calendar
func (b *Booking) IsActive() bool {
	return b.State == StatePending || b.State.IsHeld()
}

// IsHeldBy returns true if the given student currently holds the slot
func (b *Booking) IsHeldBy(studentID int64) bool {
	return b.BookedBy != nil && *b.BookedBy == studentID
}

// Overlaps returns true if the two bookings share any instant (touching edges do not count)
func (b *Booking) Overlaps(other *Booking) bool {
	return b.ScheduledStart.Before(other.ScheduledEnd()) && other.ScheduledStart.Before(b.ScheduledEnd())
}

// OverlapWindow returns the scheduled_start range holding every slot that can overlap b.
// A slot of MaxDurationMinutes that starts earlier may still run into b.
func (b *Booking) OverlapWindow() (from, to time.Time) {
	return b.ScheduledStart.Add(-time.Duration(MaxDurationMinutes) * time.Minute), b.ScheduledEnd()
}

// FindOverlap returns the first active booking in existing, other than b itself, that overlaps b
func FindOverlap(b *Booking, existing []*Booking) *Booking {
	for _, other := range existing {
		if other.ID == b.ID || !other.IsActive() {
			continue
		}
		if b.Overlaps(other) {
			return other
		}
	}
	return nil
}

// Apply copies a persisted transition result onto the booking.
// Callers use it to keep their snapshot in step with storage.
func (b *Booking) Apply(stored *Booking) {
	*b = *stored
}

// BookingsFilter selects bookings for listings
type BookingsFilter struct {
	TeacherID *int64
	StudentID *int64
	Subject   *string
	States    []BookingState
	From      *time.Time // scheduled_start >= From
	To        *time.Time // scheduled_start < To
	Limit     int        // 0 = no limit
}
