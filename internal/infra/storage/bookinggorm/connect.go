package bookinggorm

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open открывает соединение GORM для указанного диалекта
// Для sqlite схема создаётся через AutoMigrate, для postgres ей владеют миграции goose
func Open(dialect, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	switch dialect {
	case DialectPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	case DialectSQLite:
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&BookingModel{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}
}
