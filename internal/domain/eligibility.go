package domain

import (
	"fmt"
	"time"
)

// IsCancellationAllowed reports whether a lesson starting at scheduledStart may still be
// cancelled at now. The boundary is inclusive: exactly 24h before start is allowed.
func IsCancellationAllowed(scheduledStart, now time.Time) bool {
	return DefaultPolicy().CanCancel(scheduledStart, now)
}

// IsRescheduleAllowed reports whether a lesson starting at scheduledStart may still be
// rescheduled at now. The boundary is inclusive: exactly 48h before start is allowed.
func IsRescheduleAllowed(scheduledStart, now time.Time) bool {
	return DefaultPolicy().CanReschedule(scheduledStart, now)
}

// HoursUntil returns the hours remaining until scheduledStart; negative once it has passed
func HoursUntil(scheduledStart, now time.Time) float64 {
	return scheduledStart.Sub(now).Hours()
}

// Policy holds the notice windows for cancel and reschedule actions
type Policy struct {
	CancellationNotice time.Duration
	RescheduleNotice   time.Duration
}

// DefaultPolicy returns the standard 24h cancel / 48h reschedule policy
func DefaultPolicy() Policy {
	return Policy{
		CancellationNotice: CancellationNotice,
		RescheduleNotice:   RescheduleNotice,
	}
}

// Validate checks that the notice windows are usable
func (p Policy) Validate() error {
	if p.CancellationNotice <= 0 {
		return fmt.Errorf("cancellation notice must be positive, got %s", p.CancellationNotice)
	}
	if p.RescheduleNotice <= 0 {
		return fmt.Errorf("reschedule notice must be positive, got %s", p.RescheduleNotice)
	}
	return nil
}

// CanCancel returns true iff scheduledStart - now >= CancellationNotice
func (p Policy) CanCancel(scheduledStart, now time.Time) bool {
	return withinWindow(scheduledStart, now, p.CancellationNotice)
}

// CanReschedule returns true iff scheduledStart - now >= RescheduleNotice
func (p Policy) CanReschedule(scheduledStart, now time.Time) bool {
	return withinWindow(scheduledStart, now, p.RescheduleNotice)
}

// RequiredNotice returns the notice window for a time-gated action
func (p Policy) RequiredNotice(action Action) time.Duration {
	switch action {
	case ActionCancel:
		return p.CancellationNotice
	case ActionReschedule:
		return p.RescheduleNotice
	default:
		return 0
	}
}

func withinWindow(scheduledStart, now time.Time, notice time.Duration) bool {
	remaining := scheduledStart.Sub(now)
	return remaining > 0 && remaining >= notice
}
