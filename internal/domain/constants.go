package domain

import "time"

// Notice windows for time-sensitive actions
const (
	CancellationNotice = 24 * time.Hour
	RescheduleNotice   = 48 * time.Hour
)

// Slot constraints
const (
	DefaultDurationMinutes      = 60
	MinDurationMinutes          = 15
	MaxDurationMinutes          = 480 // 8 hours
	MaxSubjectLength            = 120
	MaxCancellationReasonLength = 500
	DefaultOpenSlotsWindowDays  = 14
	MaxOpenSlotsWindowDays      = 90
)

// InitialVersion is the revision a booking starts with
const InitialVersion int64 = 1

// ActiveStates are the states that still occupy a teacher's calendar
var ActiveStates = []BookingState{
	StatePending,
	StateBooked,
	StateRescheduled,
}

// HeldStates are the states in which a student holds the slot
var HeldStates = []BookingState{
	StateBooked,
	StateRescheduled,
}
