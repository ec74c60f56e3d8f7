package open_slot

import (
	"time"

	"github.com/google/uuid"
)

// Request модель запроса на открытие слота
type Request struct {
	TeacherID       int64     // ID преподавателя (из X-User-ID)
	Subject         string    // Предмет занятия
	Start           time.Time // Время начала
	DurationMinutes int       // Длительность; 0 означает значение по умолчанию
}

// Response модель ответа с открытым слотом
type Response struct {
	ID              uuid.UUID
	TeacherID       int64
	Subject         string
	ScheduledStart  time.Time
	DurationMinutes int
	State           string
	Version         int64
	CreatedAt       time.Time
}
