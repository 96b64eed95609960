// Package gormstorage implements the storage.Backend interface on GORM, for
// both a local SQLite library file and a shared Postgres server.
package gormstorage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/markershare/markershare/internal/database"
	"github.com/markershare/markershare/internal/model"
	"github.com/markershare/markershare/internal/model/convert"
	"github.com/markershare/markershare/internal/storage"
	"github.com/markershare/markershare/pkg/core"
)

// Backend stores marker sets as rows of model.SavedSet.
type Backend struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New creates a GORM backend over an open connection.
func New(db *gorm.DB, log zerolog.Logger) *Backend {
	return &Backend{
		db:  db,
		log: log,
	}
}

// Init migrates the schema.
func (b *Backend) Init() error {
	return database.Setup(b.db, b.log)
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSet inserts the set or overwrites the row with the same name.
func (b *Backend) SaveSet(name string, set *core.MarkerSet, encoded string) error {
	if name == "" {
		return fmt.Errorf("set name is empty")
	}
	if set == nil {
		return fmt.Errorf("save %q: set is nil", name)
	}

	row, err := convert.CoreToSavedSet(name, set, encoded)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	err = b.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "zone_id", "dialect", "marker_count", "timestamp", "markers", "encoded", "extent",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}

	b.log.Debug().Str("name", name).Int("markers", row.MarkerCount).Msg("Saved marker set")
	return nil
}

// GetSet loads the named set.
func (b *Backend) GetSet(name string) (*core.MarkerSet, error) {
	var row model.SavedSet
	err := b.db.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get %q: %w", name, storage.ErrSetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", name, err)
	}
	return convert.SavedSetToCore(row)
}

// ListSets returns summaries ordered by name without loading markers.
func (b *Backend) ListSets() ([]storage.SetInfo, error) {
	var rows []model.SavedSet
	err := b.db.Select("name", "zone_id", "dialect", "marker_count", "updated_at").
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	out := make([]storage.SetInfo, 0, len(rows))
	for _, r := range rows {
		dialect, err := core.ParseDialect(r.Dialect)
		if err != nil {
			b.log.Warn().Str("name", r.Name).Str("dialect", r.Dialect).Msg("Saved set has unknown dialect")
		}
		out = append(out, storage.SetInfo{
			Name:        r.Name,
			ZoneID:      r.ZoneID,
			Dialect:     dialect,
			MarkerCount: r.MarkerCount,
			SavedAt:     r.UpdatedAt,
		})
	}
	return out, nil
}

// DeleteSet removes the named set.
func (b *Backend) DeleteSet(name string) error {
	res := b.db.Where("name = ?", name).Delete(&model.SavedSet{})
	if res.Error != nil {
		return fmt.Errorf("delete %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %q: %w", name, storage.ErrSetNotFound)
	}
	return nil
}

// Backup writes a copy of a SQLite library to path.
func (b *Backend) Backup(path string) error {
	return database.BackupSQLite(b.db, path, b.log)
}
