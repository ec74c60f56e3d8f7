//go:build integration

package booking_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/infra/migrations"
	"github.com/macieste/lesson-booking/internal/infra/storage/booking"
	"github.com/macieste/lesson-booking/pkg/dbmetrics"
	"github.com/macieste/lesson-booking/pkg/txmanager"
)

// setupPostgres поднимает PostgreSQL в контейнере и применяет миграции
func setupPostgres(t *testing.T) *dbmetrics.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "lesson_booking",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=lesson_booking sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.Eventually(t, func() bool { return db.PingContext(ctx) == nil }, 30*time.Second, 500*time.Millisecond)

	migrator, err := migrations.NewMigrator(db)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	return dbmetrics.Wrap(db, nil)
}

func TestRepository_Lifecycle(t *testing.T) {
	db := setupPostgres(t)
	repo := booking.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	slot := domain.NewSlot(7, "Mathematics", now.Add(72*time.Hour), 60)
	_, err := repo.Create(ctx, slot)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, stored.State)
	assert.Equal(t, domain.InitialVersion, stored.Version)
	assert.True(t, stored.ScheduledStart.Equal(slot.ScheduledStart))

	sm := domain.NewStateMachine(domain.DefaultPolicy())
	claim, err := sm.PlanClaim(stored, 42)
	require.NoError(t, err)

	claimed, err := repo.ApplyTransition(ctx, stored.ID, stored.State, stored.Version, claim)
	require.NoError(t, err)
	assert.Equal(t, domain.StateBooked, claimed.State)
	assert.True(t, claimed.IsHeldBy(42))
	assert.Equal(t, stored.Version+1, claimed.Version)

	// устаревший снимок
	_, err = repo.ApplyTransition(ctx, stored.ID, stored.State, stored.Version, claim)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	cancel, err := sm.PlanCancel(claimed, now, "sick")
	require.NoError(t, err)
	cancelled, err := repo.ApplyTransition(ctx, claimed.ID, claimed.State, claimed.Version, cancel)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, cancelled.State)
	assert.Nil(t, cancelled.BookedBy)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "sick", *cancelled.CancellationReason)
}

func TestRepository_ApplyTransition_NotFound(t *testing.T) {
	db := setupPostgres(t)
	repo := booking.NewRepository(db)

	ghost := domain.NewSlot(7, "Physics", time.Now().Add(72*time.Hour), 60)
	tr, err := domain.NewStateMachine(domain.DefaultPolicy()).PlanClaim(ghost, 42)
	require.NoError(t, err)

	_, err = repo.ApplyTransition(context.Background(), ghost.ID, ghost.State, ghost.Version, tr)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestRepository_ConcurrentClaim_OneWins(t *testing.T) {
	db := setupPostgres(t)
	repo := booking.NewRepository(db)
	ctx := context.Background()

	slot := domain.NewSlot(7, "Chemistry", time.Now().Add(72*time.Hour), 60)
	_, err := repo.Create(ctx, slot)
	require.NoError(t, err)

	sm := domain.NewStateMachine(domain.DefaultPolicy())
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, student := range []int64{42, 43} {
		wg.Add(1)
		go func(i int, student int64) {
			defer wg.Done()
			snapshot := *slot
			tr, err := sm.PlanClaim(&snapshot, student)
			if err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = repo.ApplyTransition(ctx, snapshot.ID, snapshot.State, snapshot.Version, tr)
		}(i, student)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRepository_ListAndFindElapsed(t *testing.T) {
	db := setupPostgres(t)
	repo := booking.NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	sm := domain.NewStateMachine(domain.DefaultPolicy())

	past := domain.NewSlot(7, "Mathematics", now.Add(-2*time.Hour), 60)
	future := domain.NewSlot(7, "Physics", now.Add(48*time.Hour), 60)
	other := domain.NewSlot(8, "Mathematics", now.Add(24*time.Hour), 60)
	for _, b := range []*domain.Booking{past, future, other} {
		_, err := repo.Create(ctx, b)
		require.NoError(t, err)
	}

	claim, err := sm.PlanClaim(past, 42)
	require.NoError(t, err)
	_, err = repo.ApplyTransition(ctx, past.ID, past.State, past.Version, claim)
	require.NoError(t, err)

	teacher := int64(7)
	list, err := repo.List(ctx, domain.BookingsFilter{TeacherID: &teacher})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, past.ID, list[0].ID, "sorted by start")

	student := int64(42)
	held, err := repo.List(ctx, domain.BookingsFilter{StudentID: &student})
	require.NoError(t, err)
	require.Len(t, held, 1)

	elapsed, err := repo.FindElapsed(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, elapsed, 1)
	assert.Equal(t, past.ID, elapsed[0].ID)

	// внутри транзакции List блокирует строки
	tm := txmanager.NewTransactionManager(db)
	err = tm.DoSerializable(ctx, func(ctx context.Context) error {
		_, err := repo.List(ctx, domain.BookingsFilter{TeacherID: &teacher, States: domain.ActiveStates})
		return err
	})
	assert.NoError(t, err)
}
