package list_open_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

// UseCase use case для получения свободных слотов преподавателя
type UseCase struct {
	bookingRepo  BookingRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute возвращает pending слоты в окне [From, From+Days), отсортированные по времени начала
// Уже начавшиеся слоты не возвращаются
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ListOpenSlots: teacher=%d, from=%v, days=%d, subject=%v",
		req.TeacherID, req.From, req.Days, req.Subject)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ListOpenSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().UTC()
	start := now
	if req.From != nil {
		start = req.From.UTC()
	}
	to := start.AddDate(0, 0, req.Days)

	// Прошедшая часть окна не интересна
	from := start
	if from.Before(now) {
		from = now
	}

	slots := make([]Slot, 0)
	if to.After(from) {
		list, err := uc.bookingRepo.List(ctx, domain.BookingsFilter{
			TeacherID: &req.TeacherID,
			Subject:   req.Subject,
			States:    []domain.BookingState{domain.StatePending},
			From:      &from,
			To:        &to,
		})
		if err != nil {
			uc.logger.Error("ListOpenSlots: repository error for teacher=%d: %v", req.TeacherID, err)
			return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
		}

		for _, b := range list {
			if !b.ScheduledStart.After(now) {
				continue
			}
			slots = append(slots, Slot{
				ID:              b.ID,
				Subject:         b.Subject,
				ScheduledStart:  b.ScheduledStart,
				DurationMinutes: b.DurationMinutes,
			})
		}
	}

	uc.logger.Info("ListOpenSlots: found %d open slots for teacher=%d between %s and %s",
		len(slots), req.TeacherID, from.Format(time.RFC3339), to.Format(time.RFC3339))

	return &Response{
		TeacherID: req.TeacherID,
		From:      from,
		To:        to,
		Slots:     slots,
	}, nil
}
