package fusion

// Config holds the fusion weights and confidence shaping constants.
type Config struct {
	PitchWeight     float64 `json:"pitch_weight" yaml:"pitch_weight" mapstructure:"pitch_weight"`
	EnergyWeight    float64 `json:"energy_weight" yaml:"energy_weight" mapstructure:"energy_weight"`
	TonalBonus      float64 `json:"tonal_bonus" yaml:"tonal_bonus" mapstructure:"tonal_bonus"`
	SpeechRateBonus float64 `json:"speech_rate_bonus" yaml:"speech_rate_bonus" mapstructure:"speech_rate_bonus"`
	SpikeBonus      float64 `json:"spike_bonus" yaml:"spike_bonus" mapstructure:"spike_bonus"`

	// LexicalHalfSaturation is the raw lexical score that maps to 0.5 text
	// evidence.
	LexicalHalfSaturation float64 `json:"lexical_half_saturation" yaml:"lexical_half_saturation" mapstructure:"lexical_half_saturation"`

	SarcasmEnergyThreshold float64 `json:"sarcasm_energy_threshold" yaml:"sarcasm_energy_threshold" mapstructure:"sarcasm_energy_threshold"`
	SarcasmDamping         float64 `json:"sarcasm_damping" yaml:"sarcasm_damping" mapstructure:"sarcasm_damping"`

	VoiceConfidenceBonus      float64 `json:"voice_confidence_bonus" yaml:"voice_confidence_bonus" mapstructure:"voice_confidence_bonus"`
	TranscriptConfidenceBonus float64 `json:"transcript_confidence_bonus" yaml:"transcript_confidence_bonus" mapstructure:"transcript_confidence_bonus"`
	LongTranscriptChars       int     `json:"long_transcript_chars" yaml:"long_transcript_chars" mapstructure:"long_transcript_chars"`
	MaxConfidence             float64 `json:"max_confidence" yaml:"max_confidence" mapstructure:"max_confidence"`

	FallbackConfidence  float64            `json:"fallback_confidence" yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
	DefaultDistribution map[string]float64 `json:"default_distribution" yaml:"default_distribution" mapstructure:"default_distribution"`
}

func DefaultConfig() Config {
	return Config{
		PitchWeight:               0.6,
		EnergyWeight:              0.5,
		TonalBonus:                0.25,
		SpeechRateBonus:           0.1,
		SpikeBonus:                0.15,
		LexicalHalfSaturation:     1.0,
		SarcasmEnergyThreshold:    0.25,
		SarcasmDamping:            0.5,
		VoiceConfidenceBonus:      0.06,
		TranscriptConfidenceBonus: 0.03,
		LongTranscriptChars:       50,
		MaxConfidence:             0.99,
		FallbackConfidence:        0.3,
		DefaultDistribution:       map[string]float64{"neutral": 1.0},
	}
}
