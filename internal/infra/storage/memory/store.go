package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
)

// Store хранилище бронирований в памяти процесса
// Используется в тестах и при database.driver = "memory"
type Store struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]domain.Booking
	now      func() time.Time
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]domain.Booking),
		now:      time.Now,
	}
}

// Create сохраняет новый слот
func (s *Store) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[booking.ID]; ok {
		return nil, fmt.Errorf("%w: id=%s", ErrDuplicateID, booking.ID)
	}

	now := s.now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = clone(*booking)
	return booking, nil
}

// GetByID получает бронирование по ID
func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
	}
	out := clone(b)
	return &out, nil
}

// Exists проверяет наличие бронирования
func (s *Store) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bookings[id]
	return ok, nil
}

// List возвращает бронирования по фильтру, отсортированные по времени начала
func (s *Store) List(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if !matches(b, filter) {
			continue
		}
		c := clone(b)
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledStart.Equal(out[j].ScheduledStart) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].ScheduledStart.Before(out[j].ScheduledStart)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
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
	_ context.Context,
	id uuid.UUID,
	expectedState domain.BookingState,
	expectedVersion int64,
	transition domain.Transition,
) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%s", domain.ErrBookingNotFound, id)
	}
	if current.State != expectedState || current.Version != expectedVersion {
		return nil, fmt.Errorf("%w: id=%s expected state=%s version=%d",
			domain.ErrConcurrentModification, id, expectedState, expectedVersion)
	}

	updated := transition.ApplyTo(clone(current), s.now())
	s.bookings[id] = updated

	out := clone(updated)
	return &out, nil
}

func matches(b domain.Booking, f domain.BookingsFilter) bool {
	if f.TeacherID != nil && b.TeacherID != *f.TeacherID {
		return false
	}
	if f.StudentID != nil && !b.IsHeldBy(*f.StudentID) {
		return false
	}
	if f.Subject != nil && b.Subject != *f.Subject {
		return false
	}
	if len(f.States) > 0 && !containsState(f.States, b.State) {
		return false
	}
	if f.From != nil && b.ScheduledStart.Before(*f.From) {
		return false
	}
	if f.To != nil && !b.ScheduledStart.Before(*f.To) {
		return false
	}
	return true
}

func containsState(states []domain.BookingState, s domain.BookingState) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

// clone копирует бронирование вместе с указателями
func clone(b domain.Booking) domain.Booking {
	if b.BookedBy != nil {
		v := *b.BookedBy
		b.BookedBy = &v
	}
	if b.CancelledAt != nil {
		v := *b.CancelledAt
		b.CancelledAt = &v
	}
	if b.CancellationReason != nil {
		v := *b.CancellationReason
		b.CancellationReason = &v
	}
	if b.RescheduledFrom != nil {
		v := *b.RescheduledFrom
		b.RescheduledFrom = &v
	}
	return b
}
