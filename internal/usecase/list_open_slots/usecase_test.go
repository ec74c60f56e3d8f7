package list_open_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/infra/storage/memory"
	"github.com/macieste/lesson-booking/pkg/logger"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type mockRepo struct{ mock.Mock }

func (m *mockRepo) List(ctx context.Context, f domain.BookingsFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, f)
	if v := args.Get(0); v != nil {
		return v.([]*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func seed(t *testing.T, store *memory.Store, slots ...*domain.Booking) {
	t.Helper()
	for _, s := range slots {
		_, err := store.Create(context.Background(), s)
		require.NoError(t, err)
	}
}

func TestExecute_DefaultWindow(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, logger.NewNop()).WithTimeProvider(fixedTime{now: testNow})

	soon := domain.NewSlot(7, "Mathematics", testNow.Add(2*time.Hour), 60)
	later := domain.NewSlot(7, "Physics", testNow.Add(13*24*time.Hour), 60)
	outside := domain.NewSlot(7, "Physics", testNow.Add(15*24*time.Hour), 60)
	past := domain.NewSlot(7, "Physics", testNow.Add(-time.Hour), 60)
	foreign := domain.NewSlot(8, "Physics", testNow.Add(2*time.Hour), 60)
	seed(t, store, later, soon, outside, past, foreign)

	resp, err := uc.Execute(context.Background(), &Request{TeacherID: 7})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, soon.ID, resp.Slots[0].ID)
	assert.Equal(t, later.ID, resp.Slots[1].ID)
	assert.Equal(t, testNow.AddDate(0, 0, domain.DefaultOpenSlotsWindowDays), resp.To)
}

func TestExecute_SubjectAndHeldSlotsFiltered(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store, logger.NewNop()).WithTimeProvider(fixedTime{now: testNow})

	math := domain.NewSlot(7, "Mathematics", testNow.Add(24*time.Hour), 60)
	physics := domain.NewSlot(7, "Physics", testNow.Add(26*time.Hour), 60)
	held := domain.NewSlot(7, "Mathematics", testNow.Add(28*time.Hour), 60)
	seed(t, store, math, physics, held)

	tr, err := domain.NewStateMachine(domain.DefaultPolicy()).PlanClaim(held, 42)
	require.NoError(t, err)
	_, err = store.ApplyTransition(context.Background(), held.ID, held.State, held.Version, tr)
	require.NoError(t, err)

	subject := " Mathematics "
	resp, err := uc.Execute(context.Background(), &Request{TeacherID: 7, Subject: &subject, Days: 3})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, math.ID, resp.Slots[0].ID)
}

func TestExecute_Validation(t *testing.T) {
	uc := NewUseCase(&mockRepo{}, logger.NewNop())

	_, err := uc.Execute(context.Background(), &Request{TeacherID: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{TeacherID: 7, Days: domain.MaxOpenSlotsWindowDays + 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{TeacherID: 7, Days: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_WindowEntirelyInPast(t *testing.T) {
	repo := &mockRepo{}
	uc := NewUseCase(repo, logger.NewNop()).WithTimeProvider(fixedTime{now: testNow})

	from := testNow.AddDate(0, 0, -10)
	resp, err := uc.Execute(context.Background(), &Request{TeacherID: 7, From: &from, Days: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestExecute_RepositoryError(t *testing.T) {
	repo := &mockRepo{}
	repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	uc := NewUseCase(repo, logger.NewNop()).WithTimeProvider(fixedTime{now: testNow})

	_, err := uc.Execute(context.Background(), &Request{TeacherID: 7})
	assert.ErrorIs(t, err, ErrInternal)
}
