package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macieste/lesson-booking/internal/domain"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	s := NewStore()
	s.now = func() time.Time { return testNow }
	return s
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	slot := domain.NewSlot(7, "Mathematics", testNow.Add(72*time.Hour), 60)
	_, err := s.Create(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, testNow, slot.CreatedAt)

	_, err = s.Create(ctx, slot)
	assert.ErrorIs(t, err, ErrDuplicateID)

	got, err := s.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, got.ID)

	_, err = s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	exists, err := s.Exists(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_ApplyTransition(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	sm := domain.NewStateMachine(domain.DefaultPolicy())

	slot := domain.NewSlot(7, "Mathematics", testNow.Add(72*time.Hour), 60)
	_, err := s.Create(ctx, slot)
	require.NoError(t, err)

	tr, err := sm.PlanClaim(slot, 42)
	require.NoError(t, err)

	stored, err := s.ApplyTransition(ctx, slot.ID, slot.State, slot.Version, tr)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBooked, stored.State)
	assert.Equal(t, int64(2), stored.Version)

	_, err = s.ApplyTransition(ctx, slot.ID, slot.State, slot.Version, tr)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	_, err = s.ApplyTransition(ctx, uuid.New(), slot.State, slot.Version, tr)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	// возвращённое значение не разделяет память с хранилищем
	*stored.BookedBy = 99
	again, err := s.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, again.IsHeldBy(42))
}

func TestStore_ConcurrentApply_ExactlyOneWins(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	sm := domain.NewStateMachine(domain.DefaultPolicy())

	slot := domain.NewSlot(7, "Mathematics", testNow.Add(72*time.Hour), 60)
	_, err := s.Create(ctx, slot)
	require.NoError(t, err)

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(student int64) {
			defer wg.Done()
			snapshot := *slot
			tr, err := sm.PlanClaim(&snapshot, student)
			if !assert.NoError(t, err) {
				return
			}
			_, err = s.ApplyTransition(ctx, snapshot.ID, snapshot.State, snapshot.Version, tr)
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return
			}
			if assert.ErrorIs(t, err, domain.ErrConcurrentModification) {
				atomic.AddInt32(&conflicts, 1)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(15), conflicts)
}

func TestStore_ListAndFindElapsed(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	sm := domain.NewStateMachine(domain.DefaultPolicy())

	late := domain.NewSlot(7, "Physics", testNow.Add(48*time.Hour), 60)
	early := domain.NewSlot(7, "Mathematics", testNow.Add(-time.Hour), 60)
	foreign := domain.NewSlot(8, "Mathematics", testNow.Add(24*time.Hour), 60)
	for _, b := range []*domain.Booking{late, early, foreign} {
		_, err := s.Create(ctx, b)
		require.NoError(t, err)
	}

	tr, err := sm.PlanClaim(early, 42)
	require.NoError(t, err)
	_, err = s.ApplyTransition(ctx, early.ID, early.State, early.Version, tr)
	require.NoError(t, err)

	teacher := int64(7)
	list, err := s.List(ctx, domain.BookingsFilter{TeacherID: &teacher})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)
	assert.Equal(t, late.ID, list[1].ID)

	subject := "Mathematics"
	list, err = s.List(ctx, domain.BookingsFilter{Subject: &subject, States: []domain.BookingState{domain.StatePending}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, foreign.ID, list[0].ID)

	from := testNow
	to := testNow.Add(48 * time.Hour)
	list, err = s.List(ctx, domain.BookingsFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, list, 1, "To is exclusive")

	list, err = s.List(ctx, domain.BookingsFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	elapsed, err := s.FindElapsed(ctx, testNow, 0)
	require.NoError(t, err)
	require.Len(t, elapsed, 1)
	assert.Equal(t, early.ID, elapsed[0].ID)
}

func TestTransactionManager_SerializesSections(t *testing.T) {
	tm := NewTransactionManager()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tm.DoSerializable(ctx, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxInside) {
					atomic.StoreInt32(&maxInside, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)

	// вложенный вызов не блокируется
	err := tm.Do(ctx, func(ctx context.Context) error {
		return tm.DoSerializable(ctx, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)
}
