package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heldBooking(state BookingState, start time.Time) *Booking {
	b := NewSlot(7, "Mathematics", start, 60)
	student := int64(42)
	b.State = state
	b.BookedBy = &student
	return b
}

func TestPlanClaim(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())
	slot := NewSlot(7, "Physics", testNow.Add(72*time.Hour), 45)

	tr, err := sm.PlanClaim(slot, 42)
	require.NoError(t, err)
	assert.Equal(t, StatePending, tr.From)
	assert.Equal(t, StateBooked, tr.To)
	require.NotNil(t, tr.Updates.SetBookedBy)
	assert.Equal(t, int64(42), *tr.Updates.SetBookedBy)

	applied := tr.ApplyTo(*slot, testNow)
	assert.Equal(t, StateBooked, applied.State)
	assert.True(t, applied.IsHeldBy(42))
	assert.Equal(t, slot.Version+1, applied.Version)
	// the original snapshot is untouched
	assert.Equal(t, StatePending, slot.State)
}

func TestPlanClaim_AlreadyHeld(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())
	slot := NewSlot(7, "Physics", testNow.Add(72*time.Hour), 45)
	other := int64(5)
	slot.BookedBy = &other

	_, err := sm.PlanClaim(slot, 42)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestPlanCancel_Scenarios(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())

	t.Run("23h59m before start is ineligible", func(t *testing.T) {
		b := heldBooking(StateBooked, testNow.Add(23*time.Hour+59*time.Minute))

		_, err := sm.PlanCancel(b, testNow, "")
		require.ErrorIs(t, err, ErrIneligibleAction)

		var ineligible *IneligibleActionError
		require.True(t, errors.As(err, &ineligible))
		assert.Equal(t, ActionCancel, ineligible.Action)
		assert.InDelta(t, 23.983, ineligible.HoursRemaining, 0.001)
		assert.Equal(t, 24.0, ineligible.RequiredHours)
		assert.Contains(t, err.Error(), "at least 24 hours")
	})

	t.Run("exactly 24h before start cancels and clears holder", func(t *testing.T) {
		b := heldBooking(StateBooked, testNow.Add(24*time.Hour))

		tr, err := sm.PlanCancel(b, testNow, "ill")
		require.NoError(t, err)
		assert.Equal(t, StateCancelled, tr.To)
		assert.True(t, tr.Updates.ClearBookedBy)
		require.NotNil(t, tr.Updates.CancellationReason)
		assert.Equal(t, "ill", *tr.Updates.CancellationReason)

		applied := tr.ApplyTo(*b, testNow)
		assert.Equal(t, StateCancelled, applied.State)
		assert.Nil(t, applied.BookedBy)
		require.NotNil(t, applied.CancelledAt)
		assert.True(t, applied.CancelledAt.Equal(testNow))
	})

	t.Run("rescheduled booking can be cancelled", func(t *testing.T) {
		b := heldBooking(StateRescheduled, testNow.Add(30*time.Hour))

		tr, err := sm.PlanCancel(b, testNow, "")
		require.NoError(t, err)
		assert.Equal(t, StateRescheduled, tr.From)
		assert.Nil(t, tr.Updates.CancellationReason)
	})

	t.Run("pending slot cannot be cancelled", func(t *testing.T) {
		b := NewSlot(7, "Physics", testNow.Add(72*time.Hour), 60)

		_, err := sm.PlanCancel(b, testNow, "")
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})
}

func TestPlanReschedule(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())

	t.Run("47h before start is ineligible but cancel still works", func(t *testing.T) {
		b := heldBooking(StateBooked, testNow.Add(47*time.Hour))

		_, err := sm.PlanReschedule(b, testNow, testNow.Add(96*time.Hour))
		var ineligible *IneligibleActionError
		require.True(t, errors.As(err, &ineligible))
		assert.Equal(t, ActionReschedule, ineligible.Action)
		assert.Equal(t, 48.0, ineligible.RequiredHours)

		_, err = sm.PlanCancel(b, testNow, "")
		assert.NoError(t, err)
	})

	t.Run("exactly 48h before start moves the lesson", func(t *testing.T) {
		oldStart := testNow.Add(48 * time.Hour)
		newStart := testNow.Add(120 * time.Hour)
		b := heldBooking(StateBooked, oldStart)

		tr, err := sm.PlanReschedule(b, testNow, newStart)
		require.NoError(t, err)

		applied := tr.ApplyTo(*b, testNow)
		assert.Equal(t, StateRescheduled, applied.State)
		assert.True(t, applied.ScheduledStart.Equal(newStart))
		require.NotNil(t, applied.RescheduledFrom)
		assert.True(t, applied.RescheduledFrom.Equal(oldStart))
		assert.True(t, applied.IsHeldBy(42), "holder is kept")
	})

	t.Run("new start in the past is rejected", func(t *testing.T) {
		b := heldBooking(StateBooked, testNow.Add(72*time.Hour))

		_, err := sm.PlanReschedule(b, testNow, testNow.Add(-time.Hour))
		assert.ErrorIs(t, err, ErrInvalidReschedule)
	})

	t.Run("same start is rejected", func(t *testing.T) {
		b := heldBooking(StateBooked, testNow.Add(72*time.Hour))

		_, err := sm.PlanReschedule(b, testNow, b.ScheduledStart)
		assert.ErrorIs(t, err, ErrInvalidReschedule)
	})

	t.Run("rescheduled booking cannot be rescheduled again", func(t *testing.T) {
		b := heldBooking(StateRescheduled, testNow.Add(96*time.Hour))

		_, err := sm.PlanReschedule(b, testNow, testNow.Add(120*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})
}

func TestPlanComplete(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())

	b := heldBooking(StateBooked, testNow.Add(-time.Minute))
	tr, err := sm.PlanComplete(b, testNow)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, tr.To)

	atStart := heldBooking(StateRescheduled, testNow)
	_, err = sm.PlanComplete(atStart, testNow)
	assert.NoError(t, err, "now >= start is enough")

	future := heldBooking(StateBooked, testNow.Add(time.Hour))
	_, err = sm.PlanComplete(future, testNow)
	assert.ErrorIs(t, err, ErrIneligibleAction)
}

func TestTerminalStates_RejectEverything(t *testing.T) {
	sm := NewStateMachine(DefaultPolicy())
	farFuture := testNow.Add(30 * 24 * time.Hour)

	for _, state := range []BookingState{StateCancelled, StateCompleted} {
		b := NewSlot(7, "Chemistry", farFuture, 60)
		b.State = state

		_, err := sm.PlanClaim(b, 42)
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "claim from %s", state)
		_, err = sm.PlanCancel(b, testNow, "")
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "cancel from %s", state)
		_, err = sm.PlanReschedule(b, testNow, farFuture.Add(time.Hour))
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "reschedule from %s", state)
		_, err = sm.PlanComplete(b, farFuture.Add(time.Hour))
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "complete from %s", state)

		assert.True(t, state.IsTerminal())
		for _, action := range []Action{ActionClaim, ActionCancel, ActionReschedule, ActionComplete} {
			assert.False(t, state.CanTransition(action))
		}
	}
}

func TestInvalidStateTransitionError_Message(t *testing.T) {
	err := &InvalidStateTransitionError{Action: ActionClaim, From: StateCancelled}
	assert.Equal(t, "booking: invalid state transition: cannot claim a cancelled booking", err.Error())
}

func TestBooking_Overlaps(t *testing.T) {
	a := NewSlot(7, "Math", testNow, 60)
	b := NewSlot(7, "Math", testNow.Add(30*time.Minute), 60)
	c := NewSlot(7, "Math", testNow.Add(time.Hour), 60)

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c), "touching edges do not overlap")
}

func TestFindOverlap_SkipsSelfAndInactive(t *testing.T) {
	slot := NewSlot(7, "Math", testNow, 60)
	moved := *slot
	moved.ScheduledStart = testNow.Add(30 * time.Minute)

	cancelled := NewSlot(7, "Math", testNow.Add(15*time.Minute), 60)
	cancelled.State = StateCancelled
	assert.Nil(t, FindOverlap(&moved, []*Booking{slot, cancelled}))

	other := NewSlot(7, "Math", testNow.Add(75*time.Minute), 60)
	assert.Same(t, other, FindOverlap(&moved, []*Booking{slot, cancelled, other}))
}

func TestBooking_OverlapWindow(t *testing.T) {
	slot := NewSlot(7, "Math", testNow, 90)
	from, to := slot.OverlapWindow()

	assert.Equal(t, testNow.Add(-time.Duration(MaxDurationMinutes)*time.Minute), from)
	assert.Equal(t, testNow.Add(90*time.Minute), to)
}
