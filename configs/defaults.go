package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/classifier"
	"github.com/RyanBlaney/affect-fusion/internal/storage"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/affect-fusion/pkg/smoothing"
	"github.com/spf13/viper"
)

// ApplyDefaults fills every unset key in v with its default
func ApplyDefaults(v *viper.Viper) {
	setDefaults(v)
}

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	// Application defaults
	setIfUnset(v, "verbose", d.Verbose)
	setIfUnset(v, "log_level", d.LogLevel)
	setIfUnset(v, "output_format", d.OutputFormat)
	setIfUnset(v, "config_dir", d.ConfigDir)
	setIfUnset(v, "data_dir", d.DataDir)

	// Prosody defaults
	setIfUnset(v, "prosody.frame_size", d.Prosody.FrameSize)
	setIfUnset(v, "prosody.hop_size", d.Prosody.HopSize)
	setIfUnset(v, "prosody.min_pitch_hz", d.Prosody.MinPitchHz)
	setIfUnset(v, "prosody.max_pitch_hz", d.Prosody.MaxPitchHz)
	setIfUnset(v, "prosody.voicing_threshold", d.Prosody.VoicingThreshold)
	setIfUnset(v, "prosody.silence_rms", d.Prosody.SilenceRMS)

	// Energy defaults
	setIfUnset(v, "energy.spike_frame_size", d.Energy.SpikeFrameSize)
	setIfUnset(v, "energy.spike_multiplier", d.Energy.SpikeMultiplier)
	setIfUnset(v, "energy.dynamics_window", d.Energy.DynamicsWindow)
	setIfUnset(v, "energy.dynamics_hop", d.Energy.DynamicsHop)

	// Lexicon defaults
	setIfUnset(v, "lexicon.patterns_file", d.Lexicon.PatternsFile)
	setIfUnset(v, "lexicon.context_phrase_bonus", d.Lexicon.Scoring.ContextPhraseBonus)
	setIfUnset(v, "lexicon.intensifier_bonus", d.Lexicon.Scoring.IntensifierBonus)
	setIfUnset(v, "lexicon.intensifier_window", d.Lexicon.Scoring.IntensifierWindow)
	setIfUnset(v, "lexicon.negation_penalty", d.Lexicon.Scoring.NegationPenalty)
	setIfUnset(v, "lexicon.negation_window", d.Lexicon.Scoring.NegationWindow)
	setIfUnset(v, "lexicon.consistency_bonus", d.Lexicon.Scoring.ConsistencyBonus)
	setIfUnset(v, "lexicon.min_transcript_chars", d.Lexicon.Scoring.MinTranscriptChars)

	// Fusion defaults
	setIfUnset(v, "fusion.pitch_weight", d.Fusion.PitchWeight)
	setIfUnset(v, "fusion.energy_weight", d.Fusion.EnergyWeight)
	setIfUnset(v, "fusion.tonal_bonus", d.Fusion.TonalBonus)
	setIfUnset(v, "fusion.speech_rate_bonus", d.Fusion.SpeechRateBonus)
	setIfUnset(v, "fusion.spike_bonus", d.Fusion.SpikeBonus)
	setIfUnset(v, "fusion.lexical_half_saturation", d.Fusion.LexicalHalfSaturation)
	setIfUnset(v, "fusion.sarcasm_energy_threshold", d.Fusion.SarcasmEnergyThreshold)
	setIfUnset(v, "fusion.sarcasm_damping", d.Fusion.SarcasmDamping)
	setIfUnset(v, "fusion.voice_confidence_bonus", d.Fusion.VoiceConfidenceBonus)
	setIfUnset(v, "fusion.transcript_confidence_bonus", d.Fusion.TranscriptConfidenceBonus)
	setIfUnset(v, "fusion.long_transcript_chars", d.Fusion.LongTranscriptChars)
	setIfUnset(v, "fusion.max_confidence", d.Fusion.MaxConfidence)
	setIfUnset(v, "fusion.fallback_confidence", d.Fusion.FallbackConfidence)
	setIfUnset(v, "fusion.default_distribution", d.Fusion.DefaultDistribution)

	// Smoothing defaults
	setIfUnset(v, "smoothing.mode", d.Smoothing.Mode)
	setIfUnset(v, "smoothing.ema_alpha", d.Smoothing.EMAAlpha)
	setIfUnset(v, "smoothing.capacity", d.Smoothing.Decision.Capacity)
	setIfUnset(v, "smoothing.window", d.Smoothing.Decision.Window)
	setIfUnset(v, "smoothing.min_votes", d.Smoothing.Decision.MinVotes)
	setIfUnset(v, "smoothing.single_vote_confidence", d.Smoothing.Decision.SingleVoteConfidence)
	setIfUnset(v, "smoothing.max_confidence", d.Smoothing.Decision.MaxConfidence)

	// Calibration defaults
	setIfUnset(v, "calibration.store", d.Calibration.Store)
	setIfUnset(v, "calibration.path", d.Calibration.Path)
	setIfUnset(v, "calibration.redis_addr", d.Calibration.RedisAddr)
	setIfUnset(v, "calibration.redis_db", d.Calibration.RedisDB)
	setIfUnset(v, "calibration.redis_prefix", d.Calibration.RedisPrefix)
	setIfUnset(v, "calibration.redis_ttl", d.Calibration.RedisTTL)
	setIfUnset(v, "calibration.reference_hz", d.Calibration.ReferenceHz)

	// Classifier defaults
	setIfUnset(v, "classifier.endpoint", d.Classifier.Endpoint)
	setIfUnset(v, "classifier.timeout", d.Classifier.Timeout)
	setIfUnset(v, "classifier.max_response_bytes", d.Classifier.MaxResponseBytes)

	// Server defaults
	setIfUnset(v, "server.address", d.Server.Address)
	setIfUnset(v, "server.read_timeout", d.Server.ReadTimeout)
	setIfUnset(v, "server.write_timeout", d.Server.WriteTimeout)
	setIfUnset(v, "server.shutdown_timeout", d.Server.ShutdownTimeout)
	setIfUnset(v, "server.session_idle", d.Server.SessionIdle)

	// Metrics defaults
	setIfUnset(v, "metrics.enabled", d.Metrics.Enabled)
	setIfUnset(v, "metrics.prefix", d.Metrics.Prefix)

	// Output defaults
	setIfUnset(v, "output.precision", d.Output.Precision)
	setIfUnset(v, "output.include_metadata", d.Output.IncludeMetadata)
	setIfUnset(v, "output.timestamps", d.Output.Timestamps)
}

func setIfUnset(v *viper.Viper, key string, value any) {
	if !v.IsSet(key) {
		v.Set(key, value)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "affect-fusion"),
		DataDir:      filepath.Join(home, ".local", "share", "affect-fusion"),

		Prosody:     prosody.DefaultConfig(),
		Energy:      energy.DefaultConfig(),
		Lexicon:     GetDefaultLexiconConfig(),
		Fusion:      fusion.DefaultConfig(),
		Smoothing:   GetDefaultSmoothingConfig(),
		Calibration: GetDefaultCalibrationConfig(),
		Classifier:  GetDefaultClassifierConfig(),
		Server:      GetDefaultServerConfig(),
		Metrics:     MetricsConfig{Enabled: false, Prefix: "affect_fusion"},
		Output:      GetDefaultOutputConfig(),
	}
}

// GetDefaultLexiconConfig returns the built-in table with default scoring
func GetDefaultLexiconConfig() LexiconConfig {
	return LexiconConfig{
		Scoring: lexicon.DefaultScoringConfig(),
	}
}

// GetDefaultSmoothingConfig returns per-utterance detection with default
// smoothing
func GetDefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Mode:     string(affect.ModeUtterance),
		EMAAlpha: smoothing.DefaultAlpha,
		Decision: smoothing.DefaultDecisionConfig(),
	}
}

// GetDefaultCalibrationConfig returns an in-memory calibration store
func GetDefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		Store:       storage.DriverMemory,
		RedisPrefix: "affect:calibration:",
		ReferenceHz: calibration.DefaultReferenceHz,
	}
}

// GetDefaultClassifierConfig returns a disabled classifier
func GetDefaultClassifierConfig() classifier.Config {
	return classifier.Config{
		Timeout:          classifier.DefaultTimeout,
		MaxResponseBytes: classifier.DefaultMaxResponseBytes,
	}
}

// GetDefaultServerConfig returns default HTTP server settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SessionIdle:     30 * time.Minute,
	}
}

// GetDefaultOutputConfig returns default output formatting settings
func GetDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Precision:       3,
		IncludeMetadata: true,
		Timestamps:      true,
	}
}

// GetPersistentCalibrationConfig returns a badger store under dataDir
func GetPersistentCalibrationConfig(dataDir string) CalibrationConfig {
	cfg := GetDefaultCalibrationConfig()
	cfg.Store = storage.DriverBadger
	cfg.Path = filepath.Join(dataDir, "calibration")
	return cfg
}
