package domain

import (
	"time"
)

// Action is a requested change to a booking
type Action string

const (
	ActionClaim      Action = "claim"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionComplete   Action = "complete"
)

func (a Action) String() string {
	return string(a)
}

// transitions is the state machine: for each state, the actions it accepts and the resulting state.
// Terminal states accept nothing.
var transitions = map[BookingState]map[Action]BookingState{
	StatePending: {
		ActionClaim: StateBooked,
	},
	StateBooked: {
		ActionCancel:     StateCancelled,
		ActionReschedule: StateRescheduled,
		ActionComplete:   StateCompleted,
	},
	StateRescheduled: {
		ActionCancel:   StateCancelled,
		ActionComplete: StateCompleted,
	},
	StateCancelled: {},
	StateCompleted: {},
}

// CanTransition returns true if the state machine lists the action for the state
func (s BookingState) CanTransition(action Action) bool {
	_, ok := transitions[s][action]
	return ok
}

// FieldUpdates is the set of field writes that accompany a state change
type FieldUpdates struct {
	SetBookedBy        *int64
	ClearBookedBy      bool
	ScheduledStart     *time.Time
	RescheduledFrom    *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

// Transition is a planned, validated state change. It is computed purely and persisted by storage.
type Transition struct {
	Action         Action
	From           BookingState
	To             BookingState
	Updates        FieldUpdates
	HoursRemaining float64
}

// ApplyTo returns a copy of b with the transition applied, as storage would write it
func (t Transition) ApplyTo(b Booking, now time.Time) Booking {
	b.State = t.To
	if t.Updates.SetBookedBy != nil {
		studentID := *t.Updates.SetBookedBy
		b.BookedBy = &studentID
	}
	if t.Updates.ClearBookedBy {
		b.BookedBy = nil
	}
	if t.Updates.ScheduledStart != nil {
		b.ScheduledStart = t.Updates.ScheduledStart.UTC()
	}
	if t.Updates.RescheduledFrom != nil {
		from := t.Updates.RescheduledFrom.UTC()
		b.RescheduledFrom = &from
	}
	if t.Updates.CancelledAt != nil {
		at := t.Updates.CancelledAt.UTC()
		b.CancelledAt = &at
	}
	if t.Updates.CancellationReason != nil {
		reason := *t.Updates.CancellationReason
		b.CancellationReason = &reason
	}
	b.Version++
	b.UpdatedAt = now.UTC()
	return b
}

// StateMachine plans booking transitions against a notice policy
type StateMachine struct {
	policy Policy
}

// NewStateMachine creates a state machine using the given policy
func NewStateMachine(policy Policy) *StateMachine {
	return &StateMachine{policy: policy}
}

// Policy returns the notice policy in force
func (m *StateMachine) Policy() Policy {
	return m.policy
}

// PlanClaim plans a student claiming a pending slot
func (m *StateMachine) PlanClaim(b *Booking, studentID int64) (Transition, error) {
	to, err := m.target(b, ActionClaim)
	if err != nil {
		return Transition{}, err
	}
	// a pending slot that somehow carries a holder is not unclaimed
	if b.BookedBy != nil {
		return Transition{}, &InvalidStateTransitionError{Action: ActionClaim, From: b.State}
	}

	return Transition{
		Action:  ActionClaim,
		From:    b.State,
		To:      to,
		Updates: FieldUpdates{SetBookedBy: &studentID},
	}, nil
}

// PlanCancel plans cancelling a held booking; reason may be empty
func (m *StateMachine) PlanCancel(b *Booking, now time.Time, reason string) (Transition, error) {
	to, err := m.target(b, ActionCancel)
	if err != nil {
		return Transition{}, err
	}

	hours := HoursUntil(b.ScheduledStart, now)
	if !m.policy.CanCancel(b.ScheduledStart, now) {
		return Transition{}, m.ineligible(ActionCancel, hours)
	}

	cancelledAt := now.UTC()
	updates := FieldUpdates{
		ClearBookedBy: true,
		CancelledAt:   &cancelledAt,
	}
	if reason != "" {
		updates.CancellationReason = &reason
	}

	return Transition{
		Action:         ActionCancel,
		From:           b.State,
		To:             to,
		Updates:        updates,
		HoursRemaining: hours,
	}, nil
}

// PlanReschedule plans moving a booked lesson to newStart
func (m *StateMachine) PlanReschedule(b *Booking, now, newStart time.Time) (Transition, error) {
	to, err := m.target(b, ActionReschedule)
	if err != nil {
		return Transition{}, err
	}

	hours := HoursUntil(b.ScheduledStart, now)
	if !m.policy.CanReschedule(b.ScheduledStart, now) {
		return Transition{}, m.ineligible(ActionReschedule, hours)
	}

	if !newStart.After(now) || newStart.Equal(b.ScheduledStart) {
		return Transition{}, ErrInvalidReschedule
	}

	start := newStart.UTC()
	previous := b.ScheduledStart.UTC()
	return Transition{
		Action: ActionReschedule,
		From:   b.State,
		To:     to,
		Updates: FieldUpdates{
			ScheduledStart:  &start,
			RescheduledFrom: &previous,
		},
		HoursRemaining: hours,
	}, nil
}

// PlanComplete plans marking a held booking completed once its start has elapsed
func (m *StateMachine) PlanComplete(b *Booking, now time.Time) (Transition, error) {
	to, err := m.target(b, ActionComplete)
	if err != nil {
		return Transition{}, err
	}

	hours := HoursUntil(b.ScheduledStart, now)
	if now.Before(b.ScheduledStart) {
		return Transition{}, &IneligibleActionError{Action: ActionComplete, HoursRemaining: hours}
	}

	return Transition{
		Action:         ActionComplete,
		From:           b.State,
		To:             to,
		HoursRemaining: hours,
	}, nil
}

func (m *StateMachine) target(b *Booking, action Action) (BookingState, error) {
	to, ok := transitions[b.State][action]
	if !ok {
		return "", &InvalidStateTransitionError{Action: action, From: b.State}
	}
	return to, nil
}

func (m *StateMachine) ineligible(action Action, hours float64) error {
	return &IneligibleActionError{
		Action:         action,
		HoursRemaining: hours,
		RequiredHours:  m.policy.RequiredNotice(action).Hours(),
	}
}
