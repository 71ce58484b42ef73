package storage

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// New creates the calibration store named by cfg.Driver. An empty driver
// selects the in-memory store.
func New(ctx context.Context, cfg Config, logger logging.Logger) (calibration.Store, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	logger.Debug("Opening calibration store", logging.Fields{
		"component": "calibration_store",
		"driver":    driver,
		"path":      cfg.Path,
	})

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverBadger:
		return NewBadger(cfg.Path)
	case DriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLite(db)
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported calibration store driver: %s", driver)
	}
}
