package list_open_slots

import (
	"time"

	"github.com/google/uuid"
)

// Request модель запроса свободных слотов преподавателя
type Request struct {
	TeacherID int64      // ID преподавателя
	From      *time.Time // Начало окна; по умолчанию текущее время
	Days      int        // Ширина окна в днях; 0 означает значение по умолчанию
	Subject   *string    // Фильтр по предмету (опционально)
}

// Response модель ответа со списком свободных слотов
type Response struct {
	TeacherID int64
	From      time.Time
	To        time.Time
	Slots     []Slot
}

// Slot свободный слот
type Slot struct {
	ID              uuid.UUID
	Subject         string
	ScheduledStart  time.Time
	DurationMinutes int
}
