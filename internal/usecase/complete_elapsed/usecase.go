package complete_elapsed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/macieste/lesson-booking/internal/domain"
)

// DefaultBatchSize сколько бронирований обрабатывается за прогон
const DefaultBatchSize = 100

const (
	sweepSuccess = "success"
	sweepPartial = "partial"
	sweepError   = "error"
)

// UseCase use case для завершения прошедших занятий
type UseCase struct {
	finder       BookingFinder
	completer    Completer
	metrics      MetricsRecorder
	timeProvider TimeProvider
	logger       Logger
	batchSize    int
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(finder BookingFinder, completer Completer, metrics MetricsRecorder, batchSize int, logger Logger) *UseCase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &UseCase{
		finder:       finder,
		completer:    completer,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		batchSize:    batchSize,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute завершает одну пачку прошедших занятий
// Ошибка одного бронирования не прерывает прогон
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()

	elapsed, err := uc.finder.FindElapsed(ctx, now, uc.batchSize)
	if err != nil {
		uc.record(sweepError)
		uc.logger.Error("CompleteElapsed: failed to find elapsed bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to find elapsed bookings: %v", ErrInternal, err)
	}

	result := &Result{Found: len(elapsed)}
	for _, b := range elapsed {
		if ctx.Err() != nil {
			break
		}

		err := uc.completer.AttemptComplete(ctx, b, now)
		switch {
		case err == nil:
			result.Completed++
		case errors.Is(err, domain.ErrConcurrentModification),
			errors.Is(err, domain.ErrInvalidStateTransition),
			errors.Is(err, domain.ErrIneligibleAction),
			errors.Is(err, domain.ErrBookingNotFound):
			result.Skipped++
		default:
			result.Failed++
			uc.logger.Error("CompleteElapsed: failed to complete booking id=%s: %v", b.ID, err)
		}
	}

	if result.Found > 0 {
		uc.logger.Info("CompleteElapsed: found=%d completed=%d skipped=%d failed=%d",
			result.Found, result.Completed, result.Skipped, result.Failed)
	}

	if result.Failed > 0 {
		uc.record(sweepPartial)
	} else {
		uc.record(sweepSuccess)
	}
	return result, nil
}

func (uc *UseCase) record(result string) {
	if uc.metrics != nil {
		uc.metrics.RecordSweep(result)
	}
}

// Runner периодически запускает UseCase
type Runner struct {
	uc       *UseCase
	interval time.Duration
	logger   Logger
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewRunner создаёт фоновый запуск с интервалом interval
func NewRunner(uc *UseCase, interval time.Duration, logger Logger) *Runner {
	return &Runner{
		uc:       uc,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновую задачу; первый прогон выполняется сразу
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("CompleteElapsed: starting runner, interval=%s", r.interval)
	go r.run(ctx)
}

// Stop останавливает задачу и ждёт завершения текущего прогона
// Повторный вызов безопасен
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		<-r.done
		r.logger.Info("CompleteElapsed: runner stopped")
	})
	<-r.done
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	// Ошибка уже залогирована внутри Execute
	_, _ = r.uc.Execute(ctx)
}
