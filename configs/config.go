package configs

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/classifier"
	"github.com/RyanBlaney/affect-fusion/internal/storage"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/affect-fusion/pkg/smoothing"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	ConfigDir    string `mapstructure:"config_dir"`
	DataDir      string `mapstructure:"data_dir"`

	// Feature extraction
	Prosody prosody.Config `mapstructure:"prosody"`
	Energy  energy.Config  `mapstructure:"energy"`

	// Lexical scoring and pattern table
	Lexicon LexiconConfig `mapstructure:"lexicon"`

	// Fusion weights and confidence shaping
	Fusion fusion.Config `mapstructure:"fusion"`

	// Temporal smoothing and decision buffer
	Smoothing SmoothingConfig `mapstructure:"smoothing"`

	// Calibration persistence
	Calibration CalibrationConfig `mapstructure:"calibration"`

	// External text classifier
	Classifier classifier.Config `mapstructure:"classifier"`

	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// Metric emission
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// LexiconConfig selects the pattern table and tunes lexical scoring
type LexiconConfig struct {
	// PatternsFile is a YAML or JSON pattern table. Empty uses the built-in
	// table.
	PatternsFile string                `mapstructure:"patterns_file"`
	Scoring      lexicon.ScoringConfig `mapstructure:",squash"`
}

// SmoothingConfig contains detector mode and smoothing settings
type SmoothingConfig struct {
	Mode     string                   `mapstructure:"mode"`
	EMAAlpha float64                  `mapstructure:"ema_alpha"`
	Decision smoothing.DecisionConfig `mapstructure:",squash"`
}

// CalibrationConfig contains calibration store settings
type CalibrationConfig struct {
	Store         string        `mapstructure:"store"`
	Path          string        `mapstructure:"path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl"`
	ReferenceHz   float64       `mapstructure:"reference_hz"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SessionIdle     time.Duration `mapstructure:"session_idle"`
}

// MetricsConfig contains metric emission settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision       int  `mapstructure:"precision"`
	IncludeMetadata bool `mapstructure:"include_metadata"`
	Timestamps      bool `mapstructure:"timestamps"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom decodes v after filling in any unset defaults
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Prosody.FrameSize <= 0 || config.Prosody.HopSize <= 0 {
		return fmt.Errorf("prosody frame and hop sizes must be positive")
	}

	if config.Prosody.MinPitchHz <= 0 || config.Prosody.MaxPitchHz <= config.Prosody.MinPitchHz {
		return fmt.Errorf("prosody pitch band must satisfy 0 < min < max")
	}

	if config.Fusion.LexicalHalfSaturation <= 0 {
		return fmt.Errorf("lexical half saturation must be positive")
	}

	if config.Fusion.MaxConfidence <= 0 || config.Fusion.MaxConfidence > 1 {
		return fmt.Errorf("max confidence must be between 0 and 1")
	}

	if config.Smoothing.EMAAlpha <= 0 || config.Smoothing.EMAAlpha > 1 {
		return fmt.Errorf("ema alpha must be in (0, 1]")
	}

	if config.Smoothing.Decision.Capacity <= 0 {
		return fmt.Errorf("decision buffer capacity must be positive")
	}

	switch config.Smoothing.Mode {
	case string(affect.ModeUtterance), string(affect.ModeContinuous):
	default:
		return fmt.Errorf("unknown detector mode: %s", config.Smoothing.Mode)
	}

	switch config.Calibration.Store {
	case storage.DriverMemory:
	case storage.DriverBadger, storage.DriverSQLite:
		if config.Calibration.Path == "" {
			return fmt.Errorf("calibration store %s requires a path", config.Calibration.Store)
		}
	case storage.DriverRedis:
		if config.Calibration.RedisAddr == "" {
			return fmt.Errorf("calibration store redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown calibration store: %s", config.Calibration.Store)
	}

	if config.Calibration.ReferenceHz <= 0 {
		return fmt.Errorf("calibration reference pitch must be positive")
	}

	return nil
}

// DetectorConfig assembles the tunables the detectors consume
func (c *Config) DetectorConfig() affect.Config {
	return affect.Config{
		Prosody:     c.Prosody,
		Energy:      c.Energy,
		Scoring:     c.Lexicon.Scoring,
		Fusion:      c.Fusion,
		Decision:    c.Smoothing.Decision,
		EMAAlpha:    c.Smoothing.EMAAlpha,
		ReferenceHz: c.Calibration.ReferenceHz,
	}
}

// StorageConfig maps the calibration section onto the store factory
func (c *Config) StorageConfig() storage.Config {
	cfg := storage.Config{
		Driver: c.Calibration.Store,
		Path:   c.Calibration.Path,
	}
	if c.Calibration.RedisAddr != "" {
		cfg.Redis = &storage.RedisConfig{
			Addr:     c.Calibration.RedisAddr,
			Password: c.Calibration.RedisPassword,
			DB:       c.Calibration.RedisDB,
			Prefix:   c.Calibration.RedisPrefix,
			TTL:      c.Calibration.RedisTTL,
		}
	}
	return cfg
}
