package open_slot

import (
	"context"
	"fmt"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

// UseCase use case для открытия преподавателем нового слота
type UseCase struct {
	bookingRepo  BookingRepository
	txManager    TransactionManager
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
// publisher может быть nil
func NewUseCase(
	bookingRepo BookingRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет use case открытия слота
// Проверка пересечений и вставка идут в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("OpenSlot: teacher=%d, subject=%q, start=%s, duration=%d",
		req.TeacherID, req.Subject, req.Start.Format(time.RFC3339), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("OpenSlot: validation failed: %v", err)
		return nil, err
	}

	// 2. Слот должен начинаться в будущем
	now := uc.timeProvider.Now()
	if err := validateStart(req.Start, now); err != nil {
		uc.logger.Warn("OpenSlot: start %s is not after now %s", req.Start.Format(time.RFC3339), now.Format(time.RFC3339))
		return nil, err
	}

	slot := domain.NewSlot(req.TeacherID, req.Subject, req.Start, req.DurationMinutes)

	// 3. Проверка пересечений и создание в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		from, to := slot.OverlapWindow()

		existing, err := uc.bookingRepo.List(txCtx, domain.BookingsFilter{
			TeacherID: &slot.TeacherID,
			States:    domain.ActiveStates,
			From:      &from,
			To:        &to,
		})
		if err != nil {
			uc.logger.Error("OpenSlot: failed to list teacher=%d slots: %v", slot.TeacherID, err)
			return fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
		}

		if other := domain.FindOverlap(slot, existing); other != nil {
			uc.logger.Warn("OpenSlot: teacher=%d slot at %s overlaps slot id=%s",
				slot.TeacherID, slot.ScheduledStart.Format(time.RFC3339), other.ID)
			return fmt.Errorf("%w: conflicts with slot %s", ErrSlotOverlap, other.ID)
		}

		if _, err := uc.bookingRepo.Create(txCtx, slot); err != nil {
			uc.logger.Error("OpenSlot: failed to create slot: %v", err)
			return fmt.Errorf("%w: failed to create slot: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("OpenSlot: opened slot id=%s for teacher=%d", slot.ID, slot.TeacherID)

	if uc.publisher != nil {
		event := domain.NewBookingEvent(domain.EventSlotOpened, slot, nil, &slot.TeacherID, now)
		if err := uc.publisher.Publish(ctx, event); err != nil {
			uc.logger.Error("OpenSlot: failed to publish event for slot id=%s: %v", slot.ID, err)
		}
	}

	return &Response{
		ID:              slot.ID,
		TeacherID:       slot.TeacherID,
		Subject:         slot.Subject,
		ScheduledStart:  slot.ScheduledStart,
		DurationMinutes: slot.DurationMinutes,
		State:           slot.State.String(),
		Version:         slot.Version,
		CreatedAt:       slot.CreatedAt,
	}, nil
}
