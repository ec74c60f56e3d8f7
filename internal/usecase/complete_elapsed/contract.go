package complete_elapsed

import (
	"context"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

// BookingFinder ищет удерживаемые бронирования с наступившим временем начала
type BookingFinder interface {
	FindElapsed(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
}

// Completer применяет переход complete (bookings.Service)
type Completer interface {
	AttemptComplete(ctx context.Context, b *domain.Booking, now time.Time) error
}

// MetricsRecorder интерфейс для метрик прогонов
type MetricsRecorder interface {
	RecordSweep(result string)
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
