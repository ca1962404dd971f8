package database

import (
	"errors"
	"fmt"
	"time"

	"fundledger/internal/logger"
	"fundledger/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MigrationsDir is the golang-migrate source used for Postgres.
const MigrationsDir = "file://migrations"

// Manager owns the GORM handle and knows how to bring its schema up to date.
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens a connection for the configured driver.
func NewManager(config *Config) (*Manager, error) {
	gormConfig := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch config.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(config.Path), gormConfig)
	case DriverPostgres, "":
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  config.DSN(),
			PreferSimpleProtocol: true,
		}), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if config.Driver == DriverSQLite {
		// one writer keeps sqlite transactions serialised
		sqlDB.SetMaxOpenConns(1)
		_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Manager{db: db, config: config}, nil
}

// Migrate applies SQL migrations on Postgres and falls back to GORM
// AutoMigrate on sqlite, where the SQL files (views, partial indexes) do not apply.
func (m *Manager) Migrate() error {
	if m.config.Driver == DriverSQLite {
		logger.Get().Info("Auto-migrating sqlite schema...")
		if err := m.db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	logger.Get().Info("Running database migrations...")

	mig, err := migrate.New(MigrationsDir, m.config.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
