// Package store holds the gateway's own operational state. It is a small
// SQLite file, not a business database; everything business-level lives
// in the upstream backend.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Setting is one key/value row of gateway state
type Setting struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// Well-known setting keys
const (
	KeyFreezeStart = "freeze_start"
	KeyFreezeEnd   = "freeze_end"
)

// Freeze window defaults used until a sales head changes them
const (
	defaultFreezeStartDay = 5
	defaultFreezeEndDay   = 15
)

// SettingsStore persists gateway settings in a local SQLite database
type SettingsStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the settings database and migrates it
func Open(cfg *config.SettingsConfig, logger *zap.Logger) (*SettingsStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate settings database: %w", err)
	}

	logger.Info("Settings store opened", zap.String("path", cfg.Path))

	return &SettingsStore{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *SettingsStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns a setting value and whether it exists
func (s *SettingsStore) Get(key string) (string, bool, error) {
	var setting Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set upserts a setting value
func (s *SettingsStore) Set(key, value string) error {
	setting := Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.db.Save(&setting).Error; err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// FreezeWindow returns the stored window, falling back to the defaults
// when either end was never set.
func (s *SettingsStore) FreezeWindow() (domain.FreezeWindow, error) {
	w := domain.FreezeWindow{StartDay: defaultFreezeStartDay, EndDay: defaultFreezeEndDay}

	if raw, ok, err := s.Get(KeyFreezeStart); err != nil {
		return w, err
	} else if ok {
		if day, err := strconv.Atoi(raw); err == nil {
			w.StartDay = day
		}
	}

	if raw, ok, err := s.Get(KeyFreezeEnd); err != nil {
		return w, err
	} else if ok {
		if day, err := strconv.Atoi(raw); err == nil {
			w.EndDay = day
		}
	}

	return w, nil
}

// SetFreezeWindow stores both ends of the window
func (s *SettingsStore) SetFreezeWindow(w domain.FreezeWindow) error {
	if w.StartDay < 1 || w.StartDay > 31 || w.EndDay < 1 || w.EndDay > 31 {
		return fmt.Errorf("freeze window days must be between 1 and 31")
	}
	if w.EndDay < w.StartDay {
		return fmt.Errorf("freeze window end day must not precede start day")
	}

	if err := s.Set(KeyFreezeStart, strconv.Itoa(w.StartDay)); err != nil {
		return err
	}
	if err := s.Set(KeyFreezeEnd, strconv.Itoa(w.EndDay)); err != nil {
		return err
	}

	s.logger.Info("Freeze window updated",
		zap.Int("start_day", w.StartDay),
		zap.Int("end_day", w.EndDay),
	)
	return nil
}
