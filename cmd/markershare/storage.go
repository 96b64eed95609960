package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/markershare/markershare/internal/config"
	"github.com/markershare/markershare/internal/database"
	"github.com/markershare/markershare/internal/storage"
	gormstorage "github.com/markershare/markershare/internal/storage/gorm"
	"github.com/markershare/markershare/internal/storage/memory"
)

func createStorageBackend(storageCfg config.StorageConfig, dbCfg config.DBConfig, log zerolog.Logger) (storage.Backend, error) {
	switch strings.ToLower(storageCfg.Type) {
	case "postgres":
		db, err := database.OpenPostgres(dbCfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Str("host", dbCfg.Host).Str("database", dbCfg.Database).Msg("Postgres library backend initialized")
		return gormstorage.New(db, log), nil

	case "sqlite":
		db, err := database.OpenSQLite(storageCfg.SQLite.Path, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite library: %w", err)
		}
		log.Info().Str("path", storageCfg.SQLite.Path).Msg("SQLite library backend initialized")
		return gormstorage.New(db, log), nil

	case "memory", "":
		log.Debug().Msg("Memory library backend initialized")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
