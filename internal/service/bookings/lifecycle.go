package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/service/bookings/models"
	"github.com/macieste/lesson-booking/pkg/ptr"
)

// maxAttempts число попыток для операций по ID: первая и один повтор после конфликта
const maxAttempts = 2

// AttemptCancel отменяет удерживаемое бронирование
// При успехе b обновляется до сохранённого состояния, поэтому повторный вызов
// с тем же значением вернёт InvalidStateTransitionError
func (s *Service) AttemptCancel(ctx context.Context, b *domain.Booking, actorID int64, reason string, now time.Time) error {
	if !b.State.IsTerminal() && !isParticipant(b, actorID) {
		return s.deny(domain.ActionCancel, b, actorID)
	}

	tr, err := s.machine.PlanCancel(b, now, reason)
	if err != nil {
		return s.rejected(domain.ActionCancel, b, err)
	}

	holder := b.BookedBy
	if err := s.commit(ctx, b, tr, holder, actorID, now); err != nil {
		return err
	}

	if s.reopen && b.ScheduledStart.After(now) {
		s.reopenSlot(ctx, b, now)
	}
	return nil
}

// AttemptReschedule переносит забронированное занятие на newStart
func (s *Service) AttemptReschedule(ctx context.Context, b *domain.Booking, actorID int64, newStart, now time.Time) error {
	if !b.State.IsTerminal() && !isParticipant(b, actorID) {
		return s.deny(domain.ActionReschedule, b, actorID)
	}

	tr, err := s.machine.PlanReschedule(b, now, newStart)
	if err != nil {
		return s.rejected(domain.ActionReschedule, b, err)
	}

	// Проверка пересечений и запись в одной транзакции
	err = s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		moved := tr.ApplyTo(*b, now)
		if err := s.checkOverlap(ctx, &moved); err != nil {
			if errors.Is(err, ErrSlotOverlap) {
				s.record(tr.Action, resultOverlap)
			} else {
				s.record(tr.Action, resultError)
			}
			return err
		}
		return s.persist(ctx, b, tr)
	})
	if err != nil {
		return s.txFailed(tr.Action, b, err)
	}

	s.announce(ctx, b, tr, b.BookedBy, actorID, now)
	return nil
}

// AttemptClaim закрепляет свободный слот за студентом
// Преподаватель не может забронировать собственный слот
func (s *Service) AttemptClaim(ctx context.Context, b *domain.Booking, studentID int64) error {
	if b.TeacherID == studentID {
		return s.deny(domain.ActionClaim, b, studentID)
	}

	tr, err := s.machine.PlanClaim(b, studentID)
	if err != nil {
		return s.rejected(domain.ActionClaim, b, err)
	}

	return s.commit(ctx, b, tr, ptr.Ptr(studentID), studentID, s.timeProvider.Now())
}

// AttemptComplete помечает прошедшее занятие завершённым
func (s *Service) AttemptComplete(ctx context.Context, b *domain.Booking, now time.Time) error {
	tr, err := s.machine.PlanComplete(b, now)
	if err != nil {
		return s.rejected(domain.ActionComplete, b, err)
	}

	return s.commit(ctx, b, tr, b.BookedBy, 0, now)
}

// CancelByID читает бронирование и отменяет его, повторяя один раз при конфликте
func (s *Service) CancelByID(ctx context.Context, id uuid.UUID, req *models.CancelRequest) (*models.BookingResponse, error) {
	s.logger.Info("CancelByID: booking id=%s by user=%d", id, req.UserID)

	if len([]rune(req.Reason)) > domain.MaxCancellationReasonLength {
		s.logger.Warn("CancelByID: reason is longer than %d characters", domain.MaxCancellationReasonLength)
		return nil, fmt.Errorf("%w: reason is longer than %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	return s.withRetry(ctx, "CancelByID", id, func(b *domain.Booking) error {
		return s.AttemptCancel(ctx, b, req.UserID, req.Reason, s.timeProvider.Now())
	})
}

// RescheduleByID читает бронирование и переносит его, повторяя один раз при конфликте
func (s *Service) RescheduleByID(ctx context.Context, id uuid.UUID, req *models.RescheduleRequest) (*models.BookingResponse, error) {
	s.logger.Info("RescheduleByID: booking id=%s by user=%d to %s", id, req.UserID, req.NewStart.Format(time.RFC3339))

	return s.withRetry(ctx, "RescheduleByID", id, func(b *domain.Booking) error {
		return s.AttemptReschedule(ctx, b, req.UserID, req.NewStart, s.timeProvider.Now())
	})
}

// ClaimByID читает слот и бронирует его, повторяя один раз при конфликте
// Повтор после конфликта обычно заканчивается InvalidStateTransitionError: слот уже занят
func (s *Service) ClaimByID(ctx context.Context, id uuid.UUID, studentID int64) (*models.BookingResponse, error) {
	s.logger.Info("ClaimByID: booking id=%s by student=%d", id, studentID)

	return s.withRetry(ctx, "ClaimByID", id, func(b *domain.Booking) error {
		return s.AttemptClaim(ctx, b, studentID)
	})
}

func (s *Service) withRetry(ctx context.Context, op string, id uuid.UUID, attempt func(b *domain.Booking) error) (*models.BookingResponse, error) {
	var err error
	for i := 1; i <= maxAttempts; i++ {
		var booking *domain.Booking
		booking, err = s.load(ctx, op, id)
		if err != nil {
			return nil, err
		}

		err = attempt(booking)
		if err == nil {
			return models.FromDomainBooking(booking), nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return nil, err
		}
		s.logger.Warn("%s: booking id=%s changed concurrently (attempt %d/%d)", op, id, i, maxAttempts)
	}
	return nil, err
}

// commit сохраняет переход и при успехе публикует событие
func (s *Service) commit(ctx context.Context, b *domain.Booking, tr domain.Transition, student *int64, actorID int64, now time.Time) error {
	if err := s.persist(ctx, b, tr); err != nil {
		return err
	}
	s.announce(ctx, b, tr, student, actorID, now)
	return nil
}

// persist применяет переход в хранилище и синхронизирует b с сохранённой версией
func (s *Service) persist(ctx context.Context, b *domain.Booking, tr domain.Transition) error {
	stored, err := s.repo.ApplyTransition(ctx, b.ID, b.State, b.Version, tr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConcurrentModification):
			s.record(tr.Action, resultConflict)
			s.logger.Warn("%s: booking id=%s version=%d is stale", tr.Action, b.ID, b.Version)
			return err
		case errors.Is(err, domain.ErrBookingNotFound):
			s.record(tr.Action, resultNotFound)
			s.logger.Warn("%s: booking id=%s no longer exists", tr.Action, b.ID)
			return err
		default:
			s.record(tr.Action, resultError)
			s.logger.Error("%s: repository error for booking id=%s: %v", tr.Action, b.ID, err)
			return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, tr.Action, err)
		}
	}

	b.Apply(stored)
	s.record(tr.Action, resultSuccess)
	s.logger.Info("%s: booking id=%s %s -> %s, version=%d", tr.Action, b.ID, tr.From, tr.To, b.Version)
	return nil
}

func (s *Service) announce(ctx context.Context, b *domain.Booking, tr domain.Transition, student *int64, actorID int64, now time.Time) {
	var actor *int64
	if actorID != 0 {
		actor = ptr.Ptr(actorID)
	}
	s.publish(ctx, domain.NewBookingEvent(domain.EventTypeFor(tr.Action), b, student, actor, now))
}

// txFailed оборачивает ошибки начала и фиксации транзакции в ErrInternal
func (s *Service) txFailed(action domain.Action, b *domain.Booking, err error) error {
	switch {
	case errors.Is(err, ErrSlotOverlap), errors.Is(err, ErrInternal),
		errors.Is(err, domain.ErrConcurrentModification), errors.Is(err, domain.ErrBookingNotFound):
		return err
	}
	s.record(action, resultError)
	s.logger.Error("%s: transaction error for booking id=%s: %v", action, b.ID, err)
	return fmt.Errorf("%w: %s - transaction error: %v", ErrInternal, action, err)
}

// checkOverlap ищет активный слот того же преподавателя, пересекающийся с slot
func (s *Service) checkOverlap(ctx context.Context, slot *domain.Booking) error {
	from, to := slot.OverlapWindow()
	existing, err := s.repo.List(ctx, domain.BookingsFilter{
		TeacherID: &slot.TeacherID,
		States:    domain.ActiveStates,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		s.logger.Error("overlap: repository error for teacher=%d: %v", slot.TeacherID, err)
		return fmt.Errorf("%w: checkOverlap - repository error: %v", ErrInternal, err)
	}

	if other := domain.FindOverlap(slot, existing); other != nil {
		s.logger.Warn("overlap: teacher=%d slot at %s conflicts with slot id=%s",
			slot.TeacherID, slot.ScheduledStart.Format(time.RFC3339), other.ID)
		return fmt.Errorf("%w: conflicts with slot %s", ErrSlotOverlap, other.ID)
	}
	return nil
}

// reopenSlot выставляет освободившееся время как новый свободный слот
// Если время уже занято другим слотом, новый слот не создаётся
// Ошибка не отменяет уже сохранённую отмену
func (s *Service) reopenSlot(ctx context.Context, cancelled *domain.Booking, now time.Time) {
	slot := domain.NewSlot(cancelled.TeacherID, cancelled.Subject, cancelled.ScheduledStart, cancelled.DurationMinutes)

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.checkOverlap(ctx, slot); err != nil {
			return err
		}
		_, err := s.repo.Create(ctx, slot)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotOverlap) {
			s.logger.Warn("reopen: booking id=%s not reopened: %v", cancelled.ID, err)
			return
		}
		s.logger.Error("reopen: failed to reopen slot for cancelled booking id=%s: %v", cancelled.ID, err)
		return
	}

	s.logger.Info("reopen: booking id=%s reopened as slot id=%s", cancelled.ID, slot.ID)
	s.publish(ctx, domain.NewBookingEvent(domain.EventSlotOpened, slot, nil, ptr.Ptr(cancelled.TeacherID), now))
}

func (s *Service) rejected(action domain.Action, b *domain.Booking, err error) error {
	var ineligible *domain.IneligibleActionError
	switch {
	case errors.As(err, &ineligible):
		s.record(action, resultIneligible)
		s.logger.Warn("%s: booking id=%s ineligible: %.2f hours remaining, %.0f required",
			action, b.ID, ineligible.HoursRemaining, ineligible.RequiredHours)
	case errors.Is(err, domain.ErrInvalidStateTransition):
		s.record(action, resultInvalidState)
		s.logger.Warn("%s: booking id=%s rejected in state %s", action, b.ID, b.State)
	case errors.Is(err, domain.ErrInvalidReschedule):
		s.record(action, resultInvalidInput)
		s.logger.Warn("%s: booking id=%s rejected: %v", action, b.ID, err)
	default:
		s.record(action, resultError)
		s.logger.Warn("%s: booking id=%s rejected: %v", action, b.ID, err)
	}
	return err
}

func (s *Service) deny(action domain.Action, b *domain.Booking, userID int64) error {
	s.record(action, resultDenied)
	s.logger.Warn("%s: access denied for user=%d to booking id=%s", action, userID, b.ID)
	return ErrAccessDenied
}

func (s *Service) publish(ctx context.Context, event domain.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish: failed to publish %s for booking id=%s: %v", event.Type, event.BookingID, err)
	}
}

func (s *Service) record(action domain.Action, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTransition(action.String(), result)
}

func isParticipant(b *domain.Booking, userID int64) bool {
	return b.TeacherID == userID || b.IsHeldBy(userID)
}
