package bookinggorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macieste/lesson-booking/internal/domain"
)

// Store репозиторий бронирований поверх GORM (PostgreSQL или SQLite)
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore создаёт репозиторий
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// conn возвращает транзакцию из контекста, если она есть
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// Create сохраняет новый слот
func (s *Store) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	now := s.now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	model := toModel(booking)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return nil, fmt.Errorf("%w: Create: %v", ErrQuery, err)
	}
	return booking, nil
}

// GetByID получает бронирование по ID
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var model BookingModel
	err := s.conn(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID: %v", ErrQuery, err)
	}
	return model.toDomain()
}

// Exists проверяет наличие бронирования
func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := s.conn(ctx).Model(&BookingModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: Exists: %v", ErrQuery, err)
	}
	return count > 0, nil
}

// List возвращает бронирования по фильтру, отсортированные по времени начала
func (s *Store) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	query := s.conn(ctx).Model(&BookingModel{}).Order("scheduled_start ASC").Order("id ASC")

	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.StudentID != nil {
		query = query.Where("booked_by = ?", *filter.StudentID)
	}
	if filter.Subject != nil {
		query = query.Where("subject = ?", *filter.Subject)
	}
	if len(filter.States) > 0 {
		states := make([]string, len(filter.States))
		for i, st := range filter.States {
			states[i] = string(st)
		}
		query = query.Where("state IN ?", states)
	}
	if filter.From != nil {
		query = query.Where("scheduled_start >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("scheduled_start < ?", filter.To.UTC())
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if _, inTx := txFromContext(ctx); inTx && s.db.Dialector.Name() == DialectPostgres {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var models []BookingModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("%w: List: %v", ErrQuery, err)
	}

	out := make([]*domain.Booking, 0, len(models))
	for _, m := range models {
		b, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// FindElapsed возвращает удерживаемые бронирования, чьё время начала уже наступило
func (s *Store) FindElapsed(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	until := now.Add(time.Nanosecond)
	return s.List(ctx, domain.BookingsFilter{
		States: domain.HeldStates,
		To:     &until,
		Limit:  limit,
	})
}

// ApplyTransition атомарно применяет переход при совпадении состояния и версии
func (s *Store) ApplyTransition(
	ctx context.Context,
	id uuid.UUID,
	expectedState domain.BookingState,
	expectedVersion int64,
	transition domain.Transition,
) (*domain.Booking, error) {
	now := s.now().UTC()
	values := map[string]interface{}{
		"state":      string(transition.To),
		"version":    gorm.Expr("version + 1"),
		"updated_at": now,
	}

	updates := transition.Updates
	if updates.SetBookedBy != nil {
		values["booked_by"] = *updates.SetBookedBy
	}
	if updates.ClearBookedBy {
		values["booked_by"] = nil
	}
	if updates.ScheduledStart != nil {
		values["scheduled_start"] = updates.ScheduledStart.UTC()
	}
	if updates.RescheduledFrom != nil {
		values["rescheduled_from"] = updates.RescheduledFrom.UTC()
	}
	if updates.CancelledAt != nil {
		values["cancelled_at"] = updates.CancelledAt.UTC()
	}
	if updates.CancellationReason != nil {
		values["cancellation_reason"] = *updates.CancellationReason
	}

	result := s.conn(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND state = ? AND version = ?", id, string(expectedState), expectedVersion).
		Updates(values)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: ApplyTransition: %v", ErrQuery, result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := s.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("%w: id=%s expected state=%s version=%d",
			domain.ErrConcurrentModification, id, expectedState, expectedVersion)
	}

	return s.GetByID(ctx, id)
}
