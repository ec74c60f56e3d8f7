package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/macieste/lesson-booking/internal/domain"
)

// Драйверы хранилища
const (
	DriverPostgres     = "postgres"      // database/sql + lib/pq
	DriverPgx          = "pgx"           // database/sql + pgx/v5/stdlib
	DriverGormPostgres = "gorm-postgres" // gorm + postgres
	DriverSQLite       = "sqlite"        // gorm + sqlite
	DriverMemory       = "memory"        // in-memory, для разработки
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Logs       LogsConfig       `toml:"logs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Policy     PolicyConfig     `toml:"policy"`
	Completion CompletionConfig `toml:"completion"`
	Kafka      KafkaConfig      `toml:"kafka"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	Path            string `toml:"path"` // файл sqlite; пусто = in-memory
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	AutoMigrate     bool   `toml:"auto_migrate"`
}

type LogsConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"` // json | console
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type PolicyConfig struct {
	CancellationNoticeHours int  `toml:"cancellation_notice_hours"`
	RescheduleNoticeHours   int  `toml:"reschedule_notice_hours"`
	ReopenCancelledSlots    bool `toml:"reopen_cancelled_slots"`
}

type CompletionConfig struct {
	Enabled   bool `toml:"enabled"`
	Interval  int  `toml:"interval"` // секунды
	BatchSize int  `toml:"batch_size"`
}

type KafkaConfig struct {
	Enabled      bool     `toml:"enabled"`
	Brokers      []string `toml:"brokers"`
	Topic        string   `toml:"topic"`
	WriteTimeout int      `toml:"write_timeout"` // секунды
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "lesson_booking",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			AutoMigrate:     true,
		},
		Logs: LogsConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "lesson-booking",
		},
		Policy: PolicyConfig{
			CancellationNoticeHours: int(domain.CancellationNotice / time.Hour),
			RescheduleNoticeHours:   int(domain.RescheduleNotice / time.Hour),
		},
		Completion: CompletionConfig{
			Enabled:   true,
			Interval:  60,
			BatchSize: 100,
		},
		Kafka: KafkaConfig{
			Topic:        "booking.events",
			WriteTimeout: 5,
		},
	}
}

// Load читает TOML файл поверх значений по умолчанию, затем применяет переменные окружения
// Переменные окружения могут прийти из .env в рабочей директории
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString("BOOKING_DB_DRIVER", &c.Database.Driver)
	setString("BOOKING_DB_HOST", &c.Database.Host)
	setString("BOOKING_DB_USER", &c.Database.User)
	setString("BOOKING_DB_PASSWORD", &c.Database.Password)
	setString("BOOKING_DB_NAME", &c.Database.DBName)
	setString("BOOKING_DB_PATH", &c.Database.Path)
	setString("BOOKING_LOG_LEVEL", &c.Logs.Level)
	setString("BOOKING_KAFKA_TOPIC", &c.Kafka.Topic)

	if err := setInt("BOOKING_DB_PORT", &c.Database.Port); err != nil {
		return err
	}
	if err := setInt("BOOKING_HTTP_PORT", &c.Server.HTTPPort); err != nil {
		return err
	}

	if brokers := os.Getenv("BOOKING_KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
		c.Kafka.Enabled = true
	}

	return nil
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	*dst = n
	return nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port out of range: %d", ErrInvalidConfig, c.Server.HTTPPort)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverPgx, DriverGormPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if _, err := c.Policy.ToDomain(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Completion.Enabled && c.Completion.Interval <= 0 {
		return fmt.Errorf("%w: completion.interval must be positive", ErrInvalidConfig)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers is required when kafka is enabled", ErrInvalidConfig)
	}

	return nil
}

// DSN строка подключения к PostgreSQL в формате URL (понимают lib/pq, pgx и gorm)
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}

// SQLiteDSN путь к файлу sqlite или общая in-memory база
func (d DatabaseConfig) SQLiteDSN() string {
	if d.Path == "" {
		return "file:lesson_booking?mode=memory&cache=shared"
	}
	return d.Path
}

// ToDomain собирает политику уведомлений
func (p PolicyConfig) ToDomain() (domain.Policy, error) {
	policy := domain.Policy{
		CancellationNotice: time.Duration(p.CancellationNoticeHours) * time.Hour,
		RescheduleNotice:   time.Duration(p.RescheduleNoticeHours) * time.Hour,
	}
	if err := policy.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return policy, nil
}
