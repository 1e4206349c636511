// Package history stores the switches of every run in SQLite.
package history

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/display-toggle/display-toggle/internal/models"
	"github.com/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBName = "history.db"
	defaultDBDir  = "display-toggle"
)

type DB struct {
	*gorm.DB
}

// DefaultPath returns the per-user history database location
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, defaultDBDir, defaultDBName)
}

// Connect opens the database at dbPath, or the default location when empty.
// The parent directory is created if needed.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		dbPath = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create history directory")
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history %s", dbPath)
	}

	return &DB{db}, nil
}

func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.SwitchEvent{}, &models.ErrorLog{}); err != nil {
		return errors.Wrap(err, "failed to initialize history schema")
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
