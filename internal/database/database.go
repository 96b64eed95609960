// Package database opens the GORM connections behind the marker-set library.
package database

import (
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/internal/config"
	"github.com/markershare/markershare/internal/model"
)

// SchemaVersion is written to LibraryInfo on first setup
const SchemaVersion = 1

// MemoryDSN is a private in-memory SQLite database
const MemoryDSN = "file::memory:"

// PostgresDSN builds the connection string for cfg.
func PostgresDSN(cfg config.DBConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)
}

// OpenPostgres returns a connection to the Postgres database.
func OpenPostgres(cfg config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	log.Debug().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connecting to Postgres DB")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	log.Info().Msg("Connected to database")
	return db, nil
}

// OpenSQLite returns a connection to a SQLite database.
// If path is empty, uses a private in-memory database.
func OpenSQLite(path string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = MemoryDSN
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// an in-memory database exists per connection
	if path == "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql interface: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	if path == "" {
		pragmas[0] = "PRAGMA journal_mode = MEMORY;"
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	if path != "" {
		log.Info().Str("path", path).Msg("Using local SQLite library")
	} else {
		log.Debug().Msg("Using in-memory SQLite library")
	}
	return db, nil
}

// Setup migrates tables and records the library revision if missing.
func Setup(db *gorm.DB, log zerolog.Logger) error {
	log.Debug().Msg("Migrating schema")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	var count int64
	if err := db.Model(&model.LibraryInfo{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to read library info: %w", err)
	}
	if count == 0 {
		err := db.Create(&model.LibraryInfo{
			SchemaVersion:  SchemaVersion,
			CatalogVersion: catalog.Version,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to create library info entry: %w", err)
		}
	}

	log.Debug().Msg("Database setup complete")
	return nil
}

// BackupSQLite writes a consistent copy of a SQLite database to path via
// VACUUM INTO, replacing any existing file.
func BackupSQLite(db *gorm.DB, path string, log zerolog.Logger) error {
	if path == "" {
		return fmt.Errorf("backup path not set")
	}
	if db.Dialector.Name() != "sqlite" {
		return fmt.Errorf("backup is only supported for sqlite, not %s", db.Dialector.Name())
	}

	// remove existing file if it exists
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	start := time.Now()
	if err := db.Exec("VACUUM INTO ?", path).Error; err != nil {
		return fmt.Errorf("error writing SQLite backup: %w", err)
	}

	log.Debug().Dur("duration", time.Since(start)).Str("path", path).Msg("Wrote SQLite backup")
	return nil
}
