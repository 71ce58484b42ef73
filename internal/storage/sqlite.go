package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CalibrationRecord is the sqlite row for one calibration key.
type CalibrationRecord struct {
	Key            string   `gorm:"primaryKey;column:calibration_key;size:255"`
	BaselineHz     *float64 `gorm:"column:baseline_hz"`
	Calibrated     bool
	AutoCalibrated bool
	UpdatedAt      time.Time
}

func (CalibrationRecord) TableName() string {
	return "calibrations"
}

type sqliteStore struct {
	db *gorm.DB
}

// OpenSQLite opens the database file at path and migrates the calibration
// table.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a path")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&CalibrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate calibration table: %w", err)
	}
	return db, nil
}

// NewSQLite wraps an already migrated database handle.
func NewSQLite(db *gorm.DB) (calibration.Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Load(ctx context.Context, key string) (calibration.State, bool, error) {
	if err := checkKey(key); err != nil {
		return calibration.State{}, false, err
	}

	var record CalibrationRecord
	if err := s.db.WithContext(ctx).First(&record, "calibration_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return calibration.State{}, false, nil
		}
		return calibration.State{}, false, fmt.Errorf("failed to load calibration %q: %w", key, err)
	}

	return calibration.State{
		BaselineHz:     record.BaselineHz,
		Calibrated:     record.Calibrated,
		AutoCalibrated: record.AutoCalibrated,
	}, true, nil
}

func (s *sqliteStore) Save(ctx context.Context, key string, state calibration.State) error {
	if err := checkKey(key); err != nil {
		return err
	}

	state = state.Clone()
	record := &CalibrationRecord{
		Key:            key,
		BaselineHz:     state.BaselineHz,
		Calibrated:     state.Calibrated,
		AutoCalibrated: state.AutoCalibrated,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "calibration_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"baseline_hz", "calibrated", "auto_calibrated", "updated_at"}),
	}).Create(record).Error
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("calibration_key = ?", key).Delete(&CalibrationRecord{}).Error
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
