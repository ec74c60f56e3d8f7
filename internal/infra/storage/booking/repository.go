package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/pkg/dbmetrics"
	"github.com/macieste/lesson-booking/pkg/psqlbuilder"
)

const table = "bookings"

var columns = []string{
	"id",
	"teacher_id",
	"subject",
	"scheduled_start",
	"duration_minutes",
	"state",
	"booked_by",
	"cancelled_at",
	"cancellation_reason",
	"rescheduled_from",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований поверх PostgreSQL
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новый слот
// Если в контексте есть транзакция, запрос выполняется в ней
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"teacher_id",
			"subject",
			"scheduled_start",
			"duration_minutes",
			"state",
			"booked_by",
			"version",
		).
		Values(
			booking.ID,
			booking.TeacherID,
			booking.Subject,
			booking.ScheduledStart.UTC(),
			booking.DurationMinutes,
			string(booking.State),
			booking.BookedBy,
			booking.Version,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt time.Time
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.UTC()
	booking.UpdatedAt = updatedAt.UTC()
	return booking, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}
	return booking, nil
}

// Exists проверяет наличие бронирования
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").
		Prefix("SELECT EXISTS (").
		From(table).
		Where(squirrel.Eq{"id": id}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: Exists - build select query: %v", ErrBuildQuery, err)
	}

	var exists bool
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: Exists - scan: %v", ErrScanRow, err)
	}
	return exists, nil
}

// List возвращает бронирования по фильтру, отсортированные по времени начала
// Внутри транзакции строки блокируются (FOR UPDATE)
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).
		From(table).
		OrderBy("scheduled_start ASC", "id ASC")

	if filter.TeacherID != nil {
		builder = builder.Where(squirrel.Eq{"teacher_id": *filter.TeacherID})
	}
	if filter.StudentID != nil {
		builder = builder.Where(squirrel.Eq{"booked_by": *filter.StudentID})
	}
	if filter.Subject != nil {
		builder = builder.Where(squirrel.Eq{"subject": *filter.Subject})
	}
	if len(filter.States) > 0 {
		builder = builder.Where(squirrel.Eq{"state": stateStrings(filter.States)})
	}
	if filter.From != nil {
		builder = builder.Where(squirrel.GtOrEq{"scheduled_start": filter.From.UTC()})
	}
	if filter.To != nil {
		builder = builder.Where(squirrel.Lt{"scheduled_start": filter.To.UTC()})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// FindElapsed возвращает удерживаемые бронирования, чьё время начала уже наступило
func (r *Repository) FindElapsed(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	until := now.Add(time.Nanosecond)
	return r.List(ctx, domain.BookingsFilter{
		States: domain.HeldStates,
		To:     &until,
		Limit:  limit,
	})
}

// ApplyTransition атомарно применяет переход, если бронирование всё ещё
// в состоянии expectedState и версии expectedVersion
// Ноль затронутых строк означает либо гонку, либо удалённую запись
func (r *Repository) ApplyTransition(
	ctx context.Context,
	id uuid.UUID,
	expectedState domain.BookingState,
	expectedVersion int64,
	transition domain.Transition,
) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update(table).
		Set("state", string(transition.To)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()"))

	updates := transition.Updates
	if updates.SetBookedBy != nil {
		builder = builder.Set("booked_by", *updates.SetBookedBy)
	}
	if updates.ClearBookedBy {
		builder = builder.Set("booked_by", nil)
	}
	if updates.ScheduledStart != nil {
		builder = builder.Set("scheduled_start", updates.ScheduledStart.UTC())
	}
	if updates.RescheduledFrom != nil {
		builder = builder.Set("rescheduled_from", updates.RescheduledFrom.UTC())
	}
	if updates.CancelledAt != nil {
		builder = builder.Set("cancelled_at", updates.CancelledAt.UTC())
	}
	if updates.CancellationReason != nil {
		builder = builder.Set("cancellation_reason", *updates.CancellationReason)
	}

	query, args, err := builder.
		Where(squirrel.Eq{
			"id":      id,
			"state":   string(expectedState),
			"version": expectedVersion,
		}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ApplyTransition - build update query: %v", ErrBuildQuery, err)
	}

	stored, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ApplyTransition - execute update: %v", ErrExecQuery, err)
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
	}
	return nil, fmt.Errorf("%w: id=%s expected state=%s version=%d",
		domain.ErrConcurrentModification, id, expectedState, expectedVersion)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking            domain.Booking
		state              string
		bookedBy           sql.NullInt64
		cancelledAt        sql.NullTime
		cancellationReason sql.NullString
		rescheduledFrom    sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.TeacherID,
		&booking.Subject,
		&booking.ScheduledStart,
		&booking.DurationMinutes,
		&state,
		&bookedBy,
		&cancelledAt,
		&cancellationReason,
		&rescheduledFrom,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.State = domain.BookingState(state)
	if !booking.State.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	if bookedBy.Valid {
		booking.BookedBy = &bookedBy.Int64
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		booking.CancelledAt = &t
	}
	if cancellationReason.Valid {
		booking.CancellationReason = &cancellationReason.String
	}
	if rescheduledFrom.Valid {
		t := rescheduledFrom.Time.UTC()
		booking.RescheduledFrom = &t
	}
	booking.ScheduledStart = booking.ScheduledStart.UTC()
	booking.CreatedAt = booking.CreatedAt.UTC()
	booking.UpdatedAt = booking.UpdatedAt.UTC()

	return &booking, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows iteration: %v", ErrScanRow, err)
	}
	return bookings, nil
}

func stateStrings(states []domain.BookingState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

func joinColumns() string {
	out := columns[0]
	for _, c := range columns[1:] {
		out += ", " + c
	}
	return out
}
