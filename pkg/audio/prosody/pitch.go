// Package prosody estimates the fundamental frequency contour of an
// utterance with a time-domain autocorrelation search.
package prosody

import (
	"math"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Config holds the pitch tracker tunables.
type Config struct {
	FrameSize        int     `json:"frame_size" yaml:"frame_size" mapstructure:"frame_size"`
	HopSize          int     `json:"hop_size" yaml:"hop_size" mapstructure:"hop_size"`
	MinPitchHz       float64 `json:"min_pitch_hz" yaml:"min_pitch_hz" mapstructure:"min_pitch_hz"`
	MaxPitchHz       float64 `json:"max_pitch_hz" yaml:"max_pitch_hz" mapstructure:"max_pitch_hz"`
	VoicingThreshold float64 `json:"voicing_threshold" yaml:"voicing_threshold" mapstructure:"voicing_threshold"`
	SilenceRMS       float64 `json:"silence_rms" yaml:"silence_rms" mapstructure:"silence_rms"`
}

func DefaultConfig() Config {
	return Config{
		FrameSize:        2048,
		HopSize:          512,
		MinPitchHz:       50,
		MaxPitchHz:       800,
		VoicingThreshold: 0.5,
		SilenceRMS:       1e-4,
	}
}

// Profile aggregates the voiced pitch estimates of one utterance.
type Profile struct {
	Average        float64   `json:"average"`
	Min            float64   `json:"min"`
	Max            float64   `json:"max"`
	VariationRatio float64   `json:"variationRatio"`
	Samples        []float64 `json:"samples"`
}

// Extractor runs the autocorrelation pitch search over overlapping frames.
type Extractor struct {
	config Config
	logger logging.Logger
}

func NewExtractor(cfg Config, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Extractor{
		config: cfg,
		logger: logger.WithFields(logging.Fields{
			"component": "pitch_extractor",
		}),
	}
}

// Extract returns nil when no frame yields a voiced estimate inside the
// configured band. It never fails; short or silent buffers simply produce
// no samples.
func (e *Extractor) Extract(pcm []float64, sampleRate int) *Profile {
	if sampleRate <= 0 || e.config.FrameSize <= 0 || e.config.HopSize <= 0 {
		return nil
	}

	minPeriod := int(math.Floor(float64(sampleRate) / e.config.MaxPitchHz))
	maxPeriod := int(math.Floor(float64(sampleRate) / e.config.MinPitchHz))
	if minPeriod < 1 {
		minPeriod = 1
	}
	if maxPeriod >= e.config.FrameSize {
		maxPeriod = e.config.FrameSize - 1
	}

	var samples []float64
	frames := 0
	for start := 0; start+e.config.FrameSize <= len(pcm); start += e.config.HopSize {
		frames++
		frame := pcm[start : start+e.config.FrameSize]

		period, ok := e.framePeriod(frame, minPeriod, maxPeriod)
		if !ok {
			continue
		}

		pitch := float64(sampleRate) / float64(period)
		if pitch > e.config.MinPitchHz && pitch < e.config.MaxPitchHz {
			samples = append(samples, pitch)
		}
	}

	e.logger.Debug("Pitch extraction completed", logging.Fields{
		"frames":        frames,
		"voiced_frames": len(samples),
		"sample_rate":   sampleRate,
	})

	if len(samples) == 0 {
		return nil
	}
	return summarize(samples)
}

// framePeriod picks the lag with the largest summed correlation, then
// rejects it unless the normalized correlation at that lag shows real
// periodicity.
func (e *Extractor) framePeriod(frame []float64, minPeriod, maxPeriod int) (int, bool) {
	if rms(frame) < e.config.SilenceRMS {
		return 0, false
	}

	bestPeriod := 0
	bestCorrelation := 0.0
	for lag := minPeriod; lag <= maxPeriod; lag++ {
		correlation := 0.0
		for i := 0; i+lag < len(frame); i++ {
			correlation += frame[i] * frame[i+lag]
		}
		if correlation > bestCorrelation {
			bestCorrelation = correlation
			bestPeriod = lag
		}
	}
	if bestPeriod == 0 {
		return 0, false
	}

	head, tail := 0.0, 0.0
	for i := 0; i+bestPeriod < len(frame); i++ {
		head += frame[i] * frame[i]
		tail += frame[i+bestPeriod] * frame[i+bestPeriod]
	}
	if head == 0 || tail == 0 {
		return 0, false
	}
	if bestCorrelation/math.Sqrt(head*tail) < e.config.VoicingThreshold {
		return 0, false
	}

	return bestPeriod, true
}

func summarize(samples []float64) *Profile {
	profile := &Profile{
		Min:     samples[0],
		Max:     samples[0],
		Samples: samples,
	}

	sum := 0.0
	for _, s := range samples {
		sum += s
		if s < profile.Min {
			profile.Min = s
		}
		if s > profile.Max {
			profile.Max = s
		}
	}
	profile.Average = sum / float64(len(samples))
	profile.VariationRatio = (profile.Max - profile.Min) / profile.Average

	return profile
}

func rms(pcm []float64) float64 {
	if len(pcm) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range pcm {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
