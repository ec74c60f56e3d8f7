package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/macieste/lesson-booking/internal/config"
	"github.com/macieste/lesson-booking/internal/domain"
	"github.com/macieste/lesson-booking/internal/infra/migrations"
	bookingRepo "github.com/macieste/lesson-booking/internal/infra/storage/booking"
	"github.com/macieste/lesson-booking/internal/infra/storage/bookinggorm"
	"github.com/macieste/lesson-booking/internal/infra/storage/memory"
	"github.com/macieste/lesson-booking/pkg/dbmetrics"
	"github.com/macieste/lesson-booking/pkg/logger"
	"github.com/macieste/lesson-booking/pkg/metrics"
	"github.com/macieste/lesson-booking/pkg/txmanager"
)

// bookingStore общий интерфейс всех бэкендов хранилища
type bookingStore interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	FindElapsed(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, expectedState domain.BookingState, expectedVersion int64, tr domain.Transition) (*domain.Booking, error)
}

type txManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

type storage struct {
	store   bookingStore
	tx      txManager
	closeFn func() error
}

func (s *storage) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// openStorage выбирает бэкенд по database.driver
func openStorage(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverPgx:
		db, err := sql.Open(cfg.Driver, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		configurePool(db, cfg)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info("Connected to database (driver=%s, host=%s, port=%d, db=%s)",
			cfg.Driver, cfg.Host, cfg.Port, cfg.DBName)

		if err := migrate(ctx, db, cfg, log); err != nil {
			db.Close()
			return nil, err
		}

		wrapped := dbmetrics.WrapWithDefault(db, m, stopCh)
		return &storage{
			store:   bookingRepo.NewRepository(wrapped),
			tx:      txmanager.NewTransactionManager(wrapped),
			closeFn: db.Close,
		}, nil

	case config.DriverGormPostgres, config.DriverSQLite:
		dialect, dsn := bookinggorm.DialectPostgres, cfg.DSN()
		if cfg.Driver == config.DriverSQLite {
			dialect, dsn = bookinggorm.DialectSQLite, cfg.SQLiteDSN()
		}

		gdb, err := bookinggorm.Open(dialect, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open gorm database: %w", err)
		}
		db, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
		}
		if dialect == bookinggorm.DialectPostgres {
			configurePool(db, cfg)
			// sqlite мигрирует через AutoMigrate в bookinggorm.Open
			if err := migrate(ctx, db, cfg, log); err != nil {
				db.Close()
				return nil, err
			}
		} else {
			db.SetMaxOpenConns(1)
		}
		log.Info("Connected to database via gorm (dialect=%s)", dialect)

		return &storage{
			store:   bookinggorm.NewStore(gdb),
			tx:      bookinggorm.NewTransactionManager(gdb),
			closeFn: db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory storage, data is lost on restart")
		return &storage{
			store: memory.NewStore(),
			tx:    memory.NewTransactionManager(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func configurePool(db *sql.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
}

func migrate(ctx context.Context, db *sql.DB, cfg config.DatabaseConfig, log *logger.Logger) error {
	if !cfg.AutoMigrate {
		return nil
	}

	migrator, err := migrations.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("failed to init migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Info("Database schema is at version %d", version)
	return nil
}
