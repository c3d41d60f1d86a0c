package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresOptions задает параметры подключения
type PostgresOptions struct {
	DSN string
	// Attempts: число попыток подключения; 0 означает одну попытку
	Attempts uint
	// Delay: начальная задержка между попытками
	Delay time.Duration
}

// NewPostgresDB создает новое подключение к PostgreSQL.
// Уровень логирования gorm следует уровню переданного логгера.
func NewPostgresDB(ctx context.Context, opts PostgresOptions, log *zap.Logger) (*gorm.DB, error) {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.Delay == 0 {
		opts.Delay = time.Second
	}

	var db *gorm.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = gorm.Open(gormPostgres.Open(opts.DSN), &gorm.Config{
				Logger: gormLogger(log),
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("PostgreSQL недоступен, повторяем подключение", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func gormLogger(log *zap.Logger) logger.Interface {
	level := logger.Warn
	switch {
	case log.Core().Enabled(zapcore.DebugLevel):
		level = logger.Info
	case !log.Core().Enabled(zapcore.WarnLevel):
		level = logger.Error
	}
	return logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// MigrateDB применяет SQL-миграции из источника sourceURL (например, "file://migrations")
func MigrateDB(db *gorm.DB, sourceURL string, log *zap.Logger) error {
	log.Info("Запуск применения миграций базы данных", zap.String("source", sourceURL))

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("не удалось получить *sql.DB из *gorm.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("не удалось проверить подключение к БД перед миграцией: %w", err)
	}

	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return fmt.Errorf("не удалось создать драйвер postgres для migrate: %w", err)
	}

	m, err := migrateV4.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Info("Изменений в миграциях не найдено, база данных уже актуальна")
	case err != nil:
		return fmt.Errorf("ошибка применения миграций 'up': %w", err)
	default:
		log.Info("Миграции успешно применены")
	}
	return nil
}
