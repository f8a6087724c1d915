package db

import (
	"errors"
	"fmt"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/pkg/logger"
	"gorm.io/gorm"
)

// cacheMeta records the schema version the cache tables were created with.
type cacheMeta struct {
	ID            uint `gorm:"primaryKey"`
	SchemaVersion int  `gorm:"not null"`
}

func (cacheMeta) TableName() string {
	return "cache_meta"
}

// CacheModels are the tables mirrored from the remote store.
func CacheModels() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Review{},
		&model.Restaurant{},
	}
}

// Migrate brings the cache schema to version. When the stored version
// differs, every cache table is dropped and recreated: the cache holds
// nothing the remote store cannot restore.
func Migrate(db *gorm.DB, version int) error {
	logger.Info("Running cache migrations...", logger.Fields{"schema_version": version})

	if err := db.AutoMigrate(&cacheMeta{}); err != nil {
		return fmt.Errorf("failed to migrate cache_meta: %w", err)
	}

	var meta cacheMeta
	err := db.First(&meta, 1).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		meta = cacheMeta{ID: 1}
	case err != nil:
		return fmt.Errorf("failed to read cache schema version: %w", err)
	}

	models := CacheModels()
	if meta.SchemaVersion != 0 && meta.SchemaVersion != version {
		logger.Warn("Cache schema version changed, dropping cache tables", logger.Fields{
			"from": meta.SchemaVersion,
			"to":   version,
		})
		if err := db.Migrator().DropTable(models...); err != nil {
			return fmt.Errorf("failed to drop cache tables: %w", err)
		}
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run cache migrations", err)
		return err
	}

	meta.SchemaVersion = version
	if err := db.Save(&meta).Error; err != nil {
		return fmt.Errorf("failed to record cache schema version: %w", err)
	}

	logger.Info("Cache migrations completed successfully", logger.Fields{
		"models_count": len(models),
	})
	return nil
}
