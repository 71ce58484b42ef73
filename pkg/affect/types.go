// Package affect wires feature extraction, calibration, lexical scoring,
// fusion and smoothing into per-speaker sessions.
package affect

import (
	"context"
	"time"

	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/affect-fusion/pkg/smoothing"
)

// AudioInput is mono PCM normalized to [-1, 1].
type AudioInput struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sampleRate"`
}

func (a *AudioInput) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(a.Samples)) / float64(a.SampleRate) * float64(time.Second))
}

type Hints struct {
	Domain string `json:"domain,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Utterance is one analysis request. Audio is nil when only a transcript is
// available; ExternalScores is nil when no text classifier ran.
type Utterance struct {
	Audio          *AudioInput        `json:"audio,omitempty"`
	Transcript     string             `json:"transcript"`
	Hints          Hints              `json:"contextHints"`
	ExternalScores map[string]float64 `json:"externalScores,omitempty"`
}

// Detector is implemented by every detection mode.
type Detector interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Analyze(ctx context.Context, utt Utterance) (*fusion.Result, error)
}

type Config struct {
	Prosody     prosody.Config           `json:"prosody" yaml:"prosody" mapstructure:"prosody"`
	Energy      energy.Config            `json:"energy" yaml:"energy" mapstructure:"energy"`
	Scoring     lexicon.ScoringConfig    `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Fusion      fusion.Config            `json:"fusion" yaml:"fusion" mapstructure:"fusion"`
	Decision    smoothing.DecisionConfig `json:"decision" yaml:"decision" mapstructure:"decision"`
	EMAAlpha    float64                  `json:"ema_alpha" yaml:"ema_alpha" mapstructure:"ema_alpha"`
	ReferenceHz float64                  `json:"reference_hz" yaml:"reference_hz" mapstructure:"reference_hz"`
}

func DefaultConfig() Config {
	return Config{
		Prosody:     prosody.DefaultConfig(),
		Energy:      energy.DefaultConfig(),
		Scoring:     lexicon.DefaultScoringConfig(),
		Fusion:      fusion.DefaultConfig(),
		Decision:    smoothing.DefaultDecisionConfig(),
		EMAAlpha:    smoothing.DefaultAlpha,
		ReferenceHz: calibration.DefaultReferenceHz,
	}
}
