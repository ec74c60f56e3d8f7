package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
)

// BookingRepository интерфейс хранилища бронирований
// Реализации: storage/booking (PostgreSQL), storage/bookinggorm, storage/memory
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	ApplyTransition(
		ctx context.Context,
		id uuid.UUID,
		expectedState domain.BookingState,
		expectedVersion int64,
		transition domain.Transition,
	) (*domain.Booking, error)
}

// TransactionManager выполняет функцию в транзакции, передавая её через контекст
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher интерфейс публикации событий бронирований
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookingEvent) error
}

// MetricsRecorder интерфейс для метрик переходов
type MetricsRecorder interface {
	RecordTransition(action, result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// noTxManager выполняет функцию без транзакции
type noTxManager struct{}

func (noTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
