package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/service/bookings/models"
)

// Результаты переходов для метрик
const (
	resultSuccess      = "success"
	resultIneligible   = "ineligible"
	resultInvalidState = "invalid_state"
	resultConflict     = "conflict"
	resultOverlap      = "overlap"
	resultNotFound     = "not_found"
	resultDenied       = "denied"
	resultInvalidInput = "invalid_input"
	resultError        = "error"
)

// Config настройки жизненного цикла
type Config struct {
	Policy domain.Policy

	// ReopenCancelledSlots открывает новый слот на место отменённого будущего занятия
	ReopenCancelledSlots bool
}

// Service сервис жизненного цикла бронирований
type Service struct {
	repo         BookingRepository
	txManager    TransactionManager
	machine      *domain.StateMachine
	publisher    EventPublisher
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	reopen       bool
}

// NewService создает новый экземпляр сервиса бронирований
// publisher и metrics могут быть nil
func NewService(
	repo BookingRepository,
	cfg Config,
	publisher EventPublisher,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		repo:         repo,
		txManager:    noTxManager{},
		machine:      domain.NewStateMachine(cfg.Policy),
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		reopen:       cfg.ReopenCancelledSlots,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// WithTransactionManager задаёт менеджер транзакций для проверки пересечений слотов
// Без него проверка и запись выполняются без транзакции
func (s *Service) WithTransactionManager(tm TransactionManager) *Service {
	s.txManager = tm
	return s
}

// Policy возвращает действующую политику уведомлений
func (s *Service) Policy() domain.Policy {
	return s.machine.Policy()
}

// GetByID получает бронирование по ID
// Видеть бронирование могут преподаватель и студент, который его держит
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, userID int64) (*models.BookingResponse, error) {
	booking, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.TeacherID != userID && !booking.IsHeldBy(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%s", userID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetStudentBookings возвращает бронирования, которые держит студент
// Запрашивать может только сам студент
func (s *Service) GetStudentBookings(ctx context.Context, req *models.GetStudentBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetStudentBookings: student=%d, requester=%d, state=%v", req.StudentID, req.RequesterID, req.State)

	if req.StudentID != req.RequesterID {
		s.logger.Warn("GetStudentBookings: access denied for user=%d to student=%d", req.RequesterID, req.StudentID)
		return nil, ErrAccessDenied
	}

	filter := domain.BookingsFilter{StudentID: &req.StudentID}
	if err := applyStateFilter(&filter, req.State); err != nil {
		s.logger.Warn("GetStudentBookings: %v", err)
		return nil, err
	}

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetStudentBookings: repository error for student=%d: %v", req.StudentID, err)
		return nil, fmt.Errorf("%w: GetStudentBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(list), nil
}

// GetTeacherBookings возвращает все слоты преподавателя
// Запрашивать может только сам преподаватель
func (s *Service) GetTeacherBookings(ctx context.Context, req *models.GetTeacherBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetTeacherBookings: teacher=%d, requester=%d, state=%v", req.TeacherID, req.RequesterID, req.State)

	if req.TeacherID != req.RequesterID {
		s.logger.Warn("GetTeacherBookings: access denied for user=%d to teacher=%d", req.RequesterID, req.TeacherID)
		return nil, ErrAccessDenied
	}

	filter := domain.BookingsFilter{TeacherID: &req.TeacherID, From: req.From, To: req.To}
	if err := applyStateFilter(&filter, req.State); err != nil {
		s.logger.Warn("GetTeacherBookings: %v", err)
		return nil, err
	}

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetTeacherBookings: repository error for teacher=%d: %v", req.TeacherID, err)
		return nil, fmt.Errorf("%w: GetTeacherBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(list), nil
}

// CheckEligibility сообщает, можно ли сейчас отменить или перенести занятие
func (s *Service) CheckEligibility(ctx context.Context, id uuid.UUID, userID int64) (*models.EligibilityResponse, error) {
	booking, err := s.load(ctx, "CheckEligibility", id)
	if err != nil {
		return nil, err
	}

	if booking.TeacherID != userID && !booking.IsHeldBy(userID) {
		s.logger.Warn("CheckEligibility: access denied for user=%d to booking id=%s", userID, id)
		return nil, ErrAccessDenied
	}

	now := s.timeProvider.Now()
	policy := s.machine.Policy()

	return &models.EligibilityResponse{
		BookingID:               booking.ID.String(),
		State:                   booking.State.String(),
		ScheduledStart:          booking.ScheduledStart,
		HoursRemaining:          domain.HoursUntil(booking.ScheduledStart, now),
		CanCancel:               booking.State.CanTransition(domain.ActionCancel) && policy.CanCancel(booking.ScheduledStart, now),
		CanReschedule:           booking.State.CanTransition(domain.ActionReschedule) && policy.CanReschedule(booking.ScheduledStart, now),
		CancellationNoticeHours: policy.CancellationNotice.Hours(),
		RescheduleNoticeHours:   policy.RescheduleNotice.Hours(),
	}, nil
}

// load читает бронирование и переводит ошибки хранилища в ошибки сервиса
func (s *Service) load(ctx context.Context, op string, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, err
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

func applyStateFilter(filter *domain.BookingsFilter, state *string) error {
	if state == nil {
		return nil
	}
	st, err := models.ToDomainState(*state)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	filter.States = []domain.BookingState{st}
	return nil
}
