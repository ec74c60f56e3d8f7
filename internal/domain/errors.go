package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIneligibleAction is matched by every IneligibleActionError
	ErrIneligibleAction = errors.New("booking: action not allowed at this time")

	// ErrInvalidStateTransition is matched by every InvalidStateTransitionError
	ErrInvalidStateTransition = errors.New("booking: invalid state transition")

	// ErrConcurrentModification is returned when the booking changed since it was read
	ErrConcurrentModification = errors.New("booking: concurrent modification")

	// ErrBookingNotFound is returned when the booking no longer exists
	ErrBookingNotFound = errors.New("booking: not found")

	// ErrInvalidReschedule is returned when the requested new start is unusable
	ErrInvalidReschedule = errors.New("booking: invalid reschedule time")
)

// IneligibleActionError reports an action requested too close to (or after) the lesson start
type IneligibleActionError struct {
	Action         Action
	HoursRemaining float64
	RequiredHours  float64
}

func (e *IneligibleActionError) Error() string {
	if e.Action == ActionComplete {
		return fmt.Sprintf("%s: cannot complete a lesson that starts in %.2f hours",
			ErrIneligibleAction, e.HoursRemaining)
	}
	return fmt.Sprintf("%s: %s requires at least %s hours notice, %.2f hours remaining",
		ErrIneligibleAction, e.Action, formatHours(e.RequiredHours), e.HoursRemaining)
}

func (e *IneligibleActionError) Is(target error) bool {
	return target == ErrIneligibleAction
}

// InvalidStateTransitionError reports an action the current state does not permit
type InvalidStateTransitionError struct {
	Action Action
	From   BookingState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s a %s booking", ErrInvalidStateTransition, e.Action, e.From)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%.0f", h)
	}
	return fmt.Sprintf("%.2f", h)
}
