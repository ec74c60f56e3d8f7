package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/macieste/lesson-booking/internal/api/handlers/cancel_booking"
	claimBookingHandler "github.com/macieste/lesson-booking/internal/api/handlers/claim_booking"
	getBookingHandler "github.com/macieste/lesson-booking/internal/api/handlers/get_booking"
	getEligibilityHandler "github.com/macieste/lesson-booking/internal/api/handlers/get_eligibility"
	getStudentBookingsHandler "github.com/macieste/lesson-booking/internal/api/handlers/get_student_bookings"
	getTeacherBookingsHandler "github.com/macieste/lesson-booking/internal/api/handlers/get_teacher_bookings"
	listOpenSlotsHandler "github.com/macieste/lesson-booking/internal/api/handlers/list_open_slots"
	openSlotHandler "github.com/macieste/lesson-booking/internal/api/handlers/open_slot"
	rescheduleBookingHandler "github.com/macieste/lesson-booking/internal/api/handlers/reschedule_booking"
	"github.com/macieste/lesson-booking/internal/api/middleware"
	"github.com/macieste/lesson-booking/internal/config"
	"github.com/macieste/lesson-booking/internal/integrations/events"
	bookingsService "github.com/macieste/lesson-booking/internal/service/bookings"
	completeElapsedUC "github.com/macieste/lesson-booking/internal/usecase/complete_elapsed"
	listOpenSlotsUC "github.com/macieste/lesson-booking/internal/usecase/list_open_slots"
	openSlotUC "github.com/macieste/lesson-booking/internal/usecase/open_slot"
	"github.com/macieste/lesson-booking/pkg/logger"
	"github.com/macieste/lesson-booking/pkg/metrics"
)

type eventPublisher interface {
	bookingsService.EventPublisher
	Close() error
}

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level, cfg.Logs.Format)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting lesson-booking...")
	log.Info("Configuration loaded from %s", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	st, err := openStorage(ctx, cfg.Database, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}
	defer st.Close()

	// События
	var publisher eventPublisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topic,
			time.Duration(cfg.Kafka.WriteTimeout)*time.Second,
		)
		log.Info("Kafka publisher enabled (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	policy, err := cfg.Policy.ToDomain()
	if err != nil {
		log.Fatal("Invalid policy: %v", err)
	}

	// Метрики переходов передаём только если они включены, иначе в интерфейсе окажется nil указатель
	var recorder bookingsService.MetricsRecorder
	var sweepRecorder completeElapsedUC.MetricsRecorder
	if metricsCollector != nil {
		recorder = metricsCollector
		sweepRecorder = metricsCollector
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		st.store,
		bookingsService.Config{
			Policy:               policy,
			ReopenCancelledSlots: cfg.Policy.ReopenCancelledSlots,
		},
		publisher,
		recorder,
		log,
	).WithTransactionManager(st.tx)

	// Инициализируем use cases
	openSlotUseCase := openSlotUC.NewUseCase(st.store, st.tx, publisher, log)
	listOpenSlotsUseCase := listOpenSlotsUC.NewUseCase(st.store, log)

	var runner *completeElapsedUC.Runner
	if cfg.Completion.Enabled {
		completeUseCase := completeElapsedUC.NewUseCase(st.store, bookingSvc, sweepRecorder, cfg.Completion.BatchSize, log)
		runner = completeElapsedUC.NewRunner(completeUseCase, time.Duration(cfg.Completion.Interval)*time.Second, log)
		runner.Start(ctx)
		log.Info("Completion sweep started (interval=%ds, batch=%d)", cfg.Completion.Interval, cfg.Completion.BatchSize)
	}

	// Инициализируем handlers
	openSlot := openSlotHandler.NewHandler(openSlotUseCase, log)
	listOpenSlots := listOpenSlotsHandler.NewHandler(listOpenSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getEligibility := getEligibilityHandler.NewHandler(bookingSvc, log)
	claimBooking := claimBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(bookingSvc, log)
	getStudentBookings := getStudentBookingsHandler.NewHandler(bookingSvc, log)
	getTeacherBookings := getTeacherBookingsHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты преподавателя
	api.HandleFunc("/teachers/{teacherId}/open-slots", listOpenSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Слоты (для преподавателей) ---
	protected.HandleFunc("/slots", openSlot.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/teachers/{teacherId}/bookings", getTeacherBookings.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/eligibility", getEligibility.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/claim", claimBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPatch)

	// История студента
	protected.HandleFunc("/students/{studentId}/bookings", getStudentBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if runner != nil {
		runner.Stop()
		log.Info("Completion sweep stopped")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
