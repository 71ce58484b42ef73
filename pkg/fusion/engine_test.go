package fusion

import (
	"math/rand"
	"testing"

	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	table  *lexicon.Table
	scorer *lexicon.Scorer
	engine *Engine
}

func (s *EngineTestSuite) SetupSuite() {
	s.table = lexicon.DefaultTable()

	scorer, err := lexicon.NewScorer(s.table, lexicon.DefaultScoringConfig(), nil)
	s.Require().NoError(err)
	s.scorer = scorer
	s.engine = NewEngine(s.table, DefaultConfig(), nil)
}

func (s *EngineTestSuite) fuse(transcript string, voice *Features, external map[string]float64) *Result {
	return s.engine.Fuse(Input{
		Transcript: transcript,
		Lexical:    s.scorer.Score(transcript),
		Voice:      voice,
		External:   external,
	})
}

func voiced(pitchHz, variation, rms, meanAmplitude float64) *Features {
	return &Features{
		Pitch: &prosody.Profile{
			Average:        pitchHz,
			Min:            pitchHz * (1 - variation/2),
			Max:            pitchHz * (1 + variation/2),
			VariationRatio: variation,
			Samples:        []float64{pitchHz},
		},
		CalibratedPitchHz: pitchHz,
		Energy:            energy.Stats{RMSEnergy: rms, MeanAmplitude: meanAmplitude},
		DurationSec:       2,
	}
}

func (s *EngineTestSuite) assertDistribution(result *Result) {
	sum := 0.0
	for label, score := range result.PerEmotionScores {
		s.GreaterOrEqual(score, 0.0, label)
		sum += score
	}
	s.LessOrEqual(sum, 1.0+sumTolerance)
	s.GreaterOrEqual(result.Confidence, 0.0)
	s.LessOrEqual(result.Confidence, 0.99)
	s.Len(result.PerEmotionScores, len(s.table.Patterns))
}

func (s *EngineTestSuite) TestTextOnlyJoy() {
	result := s.fuse("I am absolutely thrilled and excited about this incredible news!", nil, nil)

	s.assertDistribution(result)
	s.Equal("joy", result.EmotionLabel)
	s.Equal(SourceTextOnly, result.Source)
	s.Greater(result.Confidence, 0.5)
	s.False(result.SarcasmFlag)
	s.Empty(result.VoiceMatches)
}

func (s *EngineTestSuite) TestVoiceOnlyLowPitchQuiet() {
	result := s.fuse("", voiced(120, 0.02, 0.05, 0.045), nil)

	s.assertDistribution(result)
	s.Equal(SourceVoiceOnly, result.Source)
	s.Equal("sadness", result.EmotionLabel)
	s.Greater(result.PerEmotionScores["sadness"], result.PerEmotionScores["joy"])
	s.Greater(result.PerEmotionScores["sadness"], result.PerEmotionScores["anger"])
}

func (s *EngineTestSuite) TestSarcasmDampsPositiveEmotions() {
	transcript := "Oh great, that's just wonderful"

	loud := s.fuse(transcript, voiced(250, 0.3, 0.6, 0.55), nil)
	quiet := s.fuse(transcript, voiced(250, 0.3, 0.1, 0.09), nil)

	s.assertDistribution(loud)
	s.assertDistribution(quiet)
	s.False(loud.SarcasmFlag)
	s.True(quiet.SarcasmFlag)
	s.Less(quiet.PerEmotionScores["joy"], loud.PerEmotionScores["joy"])
	s.Less(quiet.PerEmotionScores["surprise"], loud.PerEmotionScores["surprise"])
	s.Equal(SourceVoiceText, quiet.Source)
}

func (s *EngineTestSuite) TestSarcasmNeedsAudio() {
	result := s.fuse("Oh great, that's just wonderful", nil, nil)
	s.False(result.SarcasmFlag)
}

func (s *EngineTestSuite) TestNoPitchMeansNoPitchEvidence() {
	features := &Features{Energy: energy.Stats{RMSEnergy: 0.3, MeanAmplitude: 0.25}}
	result := s.fuse("", features, nil)

	s.assertDistribution(result)
	for label, match := range result.VoiceMatches {
		s.Zero(match.Pitch, label)
		s.Zero(match.Tonal, label)
	}
}

func (s *EngineTestSuite) TestNilExternalEqualsZeroExternal() {
	transcript := "I'm worried this could go wrong tomorrow"
	voice := voiced(300, 0.5, 0.4, 0.35)

	withNil := s.fuse(transcript, voice, nil)
	withZeros := s.fuse(transcript, voice, map[string]float64{"joy": 0, "anger": 0})

	s.Equal(withNil.PerEmotionScores, withZeros.PerEmotionScores)
	s.Equal(withNil.EmotionLabel, withZeros.EmotionLabel)
	s.Equal(withNil.Confidence, withZeros.Confidence)
}

func (s *EngineTestSuite) TestExternalScoresShiftDistribution() {
	transcript := "Well, that is how the meeting went today"

	base := s.fuse(transcript, nil, nil)
	boosted := s.fuse(transcript, nil, map[string]float64{"Angry": 0.9})

	s.assertDistribution(boosted)
	s.Greater(boosted.PerEmotionScores["anger"], base.PerEmotionScores["anger"])
	s.Equal("anger", boosted.EmotionLabel)
}

func (s *EngineTestSuite) TestNoEvidenceFallsBack() {
	result := s.engine.Fuse(Input{})

	s.assertDistribution(result)
	s.Equal(SourceNone, result.Source)
	s.Equal("neutral", result.EmotionLabel)
	s.Equal(DefaultConfig().FallbackConfidence, result.Confidence)
	s.InDelta(1.0, result.PerEmotionScores["neutral"], 1e-12)
}

func (s *EngineTestSuite) TestSourceNamesContributingEvidence() {
	type test struct {
		name       string
		transcript string
		voice      *Features
		external   map[string]float64
		source     Source
	}

	tests := []test{
		{name: "short transcript only", transcript: "hi there", source: SourceNone},
		{name: "transcript without cues", transcript: "The meeting is at noon tomorrow", source: SourceNone},
		{name: "voice with uninformative transcript", transcript: "The meeting is at noon tomorrow",
			voice: voiced(120, 0.2, 0.05, 0.045), source: SourceVoiceOnly},
		{name: "external scores only", transcript: "hi there", external: map[string]float64{"happy": 0.6}, source: SourceTextOnly},
		{name: "voice and lexical cues", transcript: "I feel so sad and lonely today",
			voice: voiced(120, 0.2, 0.05, 0.045), source: SourceVoiceText},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			result := s.fuse(tt.transcript, tt.voice, tt.external)
			s.assertDistribution(result)
			s.Equal(tt.source, result.Source)
		})
	}
}

func (s *EngineTestSuite) TestFallbackIgnoresTranscriptPresence() {
	result := s.fuse("hi there", nil, nil)

	s.Equal(SourceNone, result.Source)
	s.Equal("neutral", result.EmotionLabel)
	s.Equal(DefaultConfig().FallbackConfidence, result.Confidence)
}

func (s *EngineTestSuite) TestConfidenceBonuses() {
	short := s.fuse("I am happy but also a bit worried", nil, nil)
	long := s.fuse("I am happy but also a bit worried about the trip we planned for next week", nil, nil)

	s.Equal("joy", short.EmotionLabel)
	s.InDelta(short.PerEmotionScores["joy"], short.Confidence, 1e-12)
	s.InDelta(short.Confidence+DefaultConfig().TranscriptConfidenceBonus, long.Confidence, 1e-9)

	withVoice := s.fuse("I am happy but also a bit worried", voiced(240, 0.7, 0.6, 0.7), nil)
	s.InDelta(withVoice.PerEmotionScores[withVoice.EmotionLabel]+DefaultConfig().VoiceConfidenceBonus,
		withVoice.Confidence, 1e-9)
}

func (s *EngineTestSuite) TestRandomInputsStayNormalized() {
	rng := rand.New(rand.NewSource(99))
	transcripts := []string{
		"", "fine", "I hate this, it is so stupid and I am furious",
		"What if something bad happens? I'm scared.", "Wow, no way, I didn't expect that at all!",
	}

	for i := 0; i < 200; i++ {
		var voice *Features
		if rng.Intn(3) > 0 {
			voice = voiced(60+rng.Float64()*600, rng.Float64(), rng.Float64(), rng.Float64())
			voice.Energy.SpeechRate = rng.Float64() * 3
			voice.Energy.VolumeSpikeCount = rng.Intn(6)
			if rng.Intn(4) == 0 {
				voice.Pitch = nil
			}
		}
		var external map[string]float64
		if rng.Intn(2) == 0 {
			external = map[string]float64{"happy": rng.Float64(), "sad": rng.Float64(), "fear": rng.Float64()}
		}

		s.assertDistribution(s.fuse(transcripts[rng.Intn(len(transcripts))], voice, external))
	}
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestVoiceMatchComponents(t *testing.T) {
	engine := NewEngine(lexicon.DefaultTable(), DefaultConfig(), nil)
	anger, ok := engine.Table().Pattern("anger")
	require.True(t, ok)

	features := voiced(350, 0.9, 0.9, 0.875)
	features.Energy.SpeechRate = 2.0
	features.Energy.VolumeSpikeCount = 4

	match := engine.voiceMatch(anger.Voice, features)
	assert.InDelta(t, 0.6, match.Pitch, 1e-9)
	assert.InDelta(t, 0.5, match.Energy, 1e-9)
	assert.InDelta(t, 0.25, match.Tonal, 1e-9)
	assert.InDelta(t, 0.1, match.SpeechRate, 1e-9)
	assert.InDelta(t, 0.15, match.Spikes, 1e-9)
	assert.Equal(t, 1.0, match.Total)

	outside := engine.voiceMatch(anger.Voice, voiced(120, 0.1, 0.05, 0.04))
	assert.Zero(t, outside.Pitch)
	assert.Zero(t, outside.Energy)
}

func TestCanonicalScores(t *testing.T) {
	scores := CanonicalScores(map[string]float64{
		"Happy":      0.4,
		"excitement": 0.3,
		"SAD":        0.2,
		"anger":      -1,
		"boredom":    0,
	})

	assert.InDelta(t, 0.7, scores["joy"], 1e-12)
	assert.InDelta(t, 0.2, scores["sadness"], 1e-12)
	assert.NotContains(t, scores, "anger")
	assert.NotContains(t, scores, "neutral")
	assert.Nil(t, CanonicalScores(nil))
}
