package fusion

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// sumTolerance absorbs floating point drift when checking that a
// distribution sums to at most one.
const sumTolerance = 1e-6

// Engine fuses evidence for a fixed pattern table. It holds no per-session
// state and is safe for concurrent use.
type Engine struct {
	table  *lexicon.Table
	config Config
	logger logging.Logger
}

func NewEngine(table *lexicon.Table, cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
		table:  table,
		config: cfg,
		logger: logger.WithFields(logging.Fields{
			"component": "fusion_engine",
		}),
	}
}

func (e *Engine) Table() *lexicon.Table {
	return e.table
}

// Fuse never fails: a missing modality only narrows the evidence used. The
// source tag names the modalities that actually contributed a score.
func (e *Engine) Fuse(in Input) *Result {
	hasVoice := in.Voice != nil
	external := CanonicalScores(in.External)
	var voiceUsed, textUsed bool

	result := &Result{
		PerEmotionScores: make(map[string]float64, len(e.table.Patterns)),
		VoiceMatches:     make(map[string]VoiceMatch, len(e.table.Patterns)),
		TextEvidence:     make(map[string]float64, len(e.table.Patterns)),
		Lexical:          in.Lexical,
		Features:         in.Voice,
	}

	combined := make(map[string]float64, len(e.table.Patterns))
	total := 0.0
	for i := range e.table.Patterns {
		p := &e.table.Patterns[i]

		text := e.textEvidence(p.Label, in.Lexical, external)
		result.TextEvidence[p.Label] = text
		textUsed = textUsed || text > 0

		voice := 0.0
		if hasVoice {
			match := e.voiceMatch(p.Voice, in.Voice)
			result.VoiceMatches[p.Label] = match
			voice = match.Total
			voiceUsed = voiceUsed || voice > 0
		}

		score := text*p.TextWeight + voice*p.VoiceWeight
		combined[p.Label] = score
		total += score
	}

	if total <= 0 {
		e.applyFallback(result)
		return result
	}
	result.Source = sourceFor(voiceUsed, textUsed)

	for label, score := range combined {
		result.PerEmotionScores[label] = score / total
	}

	if hasVoice && in.Voice.Energy.RMSEnergy < e.config.SarcasmEnergyThreshold &&
		e.table.MatchesSarcasm(in.Transcript) {
		for i := range e.table.Patterns {
			p := &e.table.Patterns[i]
			if p.Valence == lexicon.ValencePositive {
				result.PerEmotionScores[p.Label] *= e.config.SarcasmDamping
			}
		}
		result.SarcasmFlag = true
	}

	label, top := e.top(result.PerEmotionScores)
	result.EmotionLabel = label
	result.Confidence = e.confidence(top, voiceUsed, in.Transcript)

	e.logger.Debug("Evidence fused", logging.Fields{
		"emotion":    result.EmotionLabel,
		"confidence": result.Confidence,
		"source":     string(result.Source),
		"sarcasm":    result.SarcasmFlag,
	})

	return result
}

// textEvidence squashes the unbounded lexical score into [0,1) and adds the
// external classifier's score for the same label.
func (e *Engine) textEvidence(label string, lexical *lexicon.Result, external map[string]float64) float64 {
	evidence := 0.0
	if lexical != nil {
		if raw := lexical.Score(label); raw > 0 {
			half := e.config.LexicalHalfSaturation
			if half <= 0 {
				half = 1
			}
			evidence = raw / (raw + half)
		}
	}
	evidence += external[label]
	return clamp(evidence, 0, 1)
}

func (e *Engine) voiceMatch(r lexicon.VoiceRanges, f *Features) VoiceMatch {
	var m VoiceMatch
	if r == (lexicon.VoiceRanges{}) {
		return m
	}

	if f.Pitch != nil {
		pitch := f.CalibratedPitchHz
		if pitch <= 0 {
			pitch = f.Pitch.Average
		}
		if pitch >= r.PitchMin && pitch <= r.PitchMax {
			span := math.Max(1, math.Max(r.PitchOptimal-r.PitchMin, r.PitchMax-r.PitchOptimal))
			m.Pitch = e.config.PitchWeight * math.Max(0, 1-math.Abs(pitch-r.PitchOptimal)/span)
		}

		v := f.Pitch.VariationRatio
		if v >= r.TonalVariationMin && v <= r.TonalVariationMax {
			m.Tonal = e.config.TonalBonus
		}
	}

	span := math.Max(0.01, r.EnergyMax-r.EnergyMin)
	optimal := (r.EnergyMin + r.EnergyMax) / 2
	m.Energy = e.config.EnergyWeight * math.Max(0, 1-math.Abs(f.Energy.MeanAmplitude-optimal)/span)

	if rate := f.Energy.SpeechRate; rate > 0 && rate >= r.SpeechRateMin && rate <= r.SpeechRateMax {
		m.SpeechRate = e.config.SpeechRateBonus
	}

	if r.SpikeMinCount > 0 && f.Energy.VolumeSpikeCount >= r.SpikeMinCount {
		m.Spikes = e.config.SpikeBonus
	}

	m.Total = clamp(m.Pitch+m.Energy+m.Tonal+m.SpeechRate+m.Spikes, 0, 1)
	return m
}

func (e *Engine) applyFallback(result *Result) {
	sum := 0.0
	for _, label := range e.table.Labels() {
		result.PerEmotionScores[label] = 0
	}
	for label, score := range e.config.DefaultDistribution {
		if _, ok := e.table.Pattern(label); ok && score > 0 {
			sum += score
		}
	}
	for label, score := range e.config.DefaultDistribution {
		if _, ok := e.table.Pattern(label); ok && score > 0 {
			result.PerEmotionScores[label] = score / sum
		}
	}

	result.EmotionLabel, _ = e.top(result.PerEmotionScores)
	result.Confidence = e.config.FallbackConfidence
	result.Source = SourceNone

	e.logger.Debug("No usable evidence, using default distribution", logging.Fields{
		"emotion": result.EmotionLabel,
		"source":  string(result.Source),
	})
}

func (e *Engine) top(scores map[string]float64) (string, float64) {
	best, bestScore := "", -1.0
	for _, label := range e.table.Labels() {
		if s := scores[label]; s > bestScore {
			best, bestScore = label, s
		}
	}
	return best, bestScore
}

func (e *Engine) confidence(top float64, hasVoice bool, transcript string) float64 {
	c := top
	if hasVoice {
		c += e.config.VoiceConfidenceBonus
	}
	if utf8.RuneCountInString(strings.TrimSpace(transcript)) > e.config.LongTranscriptChars {
		c += e.config.TranscriptConfidenceBonus
	}
	return clamp(c, 0, e.config.MaxConfidence)
}

func sourceFor(hasVoice, hasText bool) Source {
	switch {
	case hasVoice && hasText:
		return SourceVoiceText
	case hasText:
		return SourceTextOnly
	case hasVoice:
		return SourceVoiceOnly
	default:
		return SourceNone
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
