// Package fusion combines prosodic voice evidence and lexical text evidence
// into a single normalized emotion distribution.
package fusion

import (
	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
)

// Source names which evidence produced a result.
type Source string

const (
	SourceVoiceText Source = "voice+text"
	SourceTextOnly  Source = "text-only"
	SourceVoiceOnly Source = "voice-only"
	SourceNone      Source = "none"
	SourceSmoothed  Source = "smoothed"
)

// Features is the immutable per-utterance acoustic summary.
type Features struct {
	Pitch *prosody.Profile `json:"pitchProfile,omitempty"`
	// CalibratedPitchHz is the pitch average after baseline re-centering,
	// or the raw average when the speaker is uncalibrated. Zero without a
	// pitch profile.
	CalibratedPitchHz float64      `json:"calibratedPitchHz"`
	Energy            energy.Stats `json:"energy"`
	DurationSec       float64      `json:"durationSec"`
}

// VoiceMatch breaks a voice-match score into its cues.
type VoiceMatch struct {
	Pitch      float64 `json:"pitch"`
	Energy     float64 `json:"energy"`
	Tonal      float64 `json:"tonal"`
	SpeechRate float64 `json:"speechRate"`
	Spikes     float64 `json:"spikes"`
	Total      float64 `json:"total"`
}

// Input is everything the engine needs for one utterance. Voice is nil when
// no audio was supplied; External is nil when no classifier ran.
type Input struct {
	Transcript string
	Lexical    *lexicon.Result
	Voice      *Features
	External   map[string]float64
}

type Result struct {
	EmotionLabel     string             `json:"emotionLabel"`
	Confidence       float64            `json:"confidence"`
	PerEmotionScores map[string]float64 `json:"perEmotionScores"`
	Source           Source             `json:"source"`
	SarcasmFlag      bool               `json:"sarcasmFlag"`

	VoiceMatches map[string]VoiceMatch `json:"-"`
	TextEvidence map[string]float64    `json:"-"`
	Lexical      *lexicon.Result       `json:"-"`
	Features     *Features             `json:"-"`
}
