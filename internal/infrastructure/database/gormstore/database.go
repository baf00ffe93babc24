package gormstore

import (
	"fmt"
	"log/slog"

	"customer-service/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a gorm connection for the configured dialect and, when
// InitSchema is set, migrates the customers table.
func NewDatabase(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Dialect == config.DialectSQLite {
		// each sqlite connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.MaxConns))
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.InitSchema {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	log.Info("Connected to database through gorm", "dialect", cfg.Dialect)
	return db, nil
}

func newDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Dialect {
	case config.DialectPostgres, "":
		return postgres.Open(cfg.URL), nil
	case config.DialectSQLite:
		return sqlite.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&customerModel{}); err != nil {
		return fmt.Errorf("failed to migrate customers table: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
