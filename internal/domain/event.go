package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingEvent describes a committed transition for downstream consumers (notifications, chat)
type BookingEvent struct {
	Type           string       `json:"type"`
	BookingID      uuid.UUID    `json:"bookingId"`
	TeacherID      int64        `json:"teacherId"`
	StudentID      *int64       `json:"studentId,omitempty"`
	ActorID        *int64       `json:"actorId,omitempty"`
	State          BookingState `json:"state"`
	ScheduledStart time.Time    `json:"scheduledStart"`
	Version        int64        `json:"version"`
	OccurredAt     time.Time    `json:"occurredAt"`
}

// Event types
const (
	EventSlotOpened         = "booking.slot_opened"
	EventBookingClaimed     = "booking.claimed"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingRescheduled = "booking.rescheduled"
	EventBookingCompleted   = "booking.completed"
)

// EventTypeFor maps a transition action to its event type
func EventTypeFor(action Action) string {
	switch action {
	case ActionClaim:
		return EventBookingClaimed
	case ActionCancel:
		return EventBookingCancelled
	case ActionReschedule:
		return EventBookingRescheduled
	case ActionComplete:
		return EventBookingCompleted
	default:
		return "booking." + string(action)
	}
}

// NewBookingEvent builds an event from the stored booking after a transition.
// studentID is the holder before the transition, since cancel clears it.
func NewBookingEvent(eventType string, b *Booking, studentID, actorID *int64, at time.Time) BookingEvent {
	return BookingEvent{
		Type:           eventType,
		BookingID:      b.ID,
		TeacherID:      b.TeacherID,
		StudentID:      studentID,
		ActorID:        actorID,
		State:          b.State,
		ScheduledStart: b.ScheduledStart,
		Version:        b.Version,
		OccurredAt:     at.UTC(),
	}
}
