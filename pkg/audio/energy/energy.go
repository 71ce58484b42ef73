// Package energy computes loudness, spike and zero-crossing features used as
// arousal evidence.
package energy

import (
	"math"
	"strings"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/sonido-sonar/algorithms/temporal"
)

type Config struct {
	SpikeFrameSize  int     `json:"spike_frame_size" yaml:"spike_frame_size" mapstructure:"spike_frame_size"`
	SpikeMultiplier float64 `json:"spike_multiplier" yaml:"spike_multiplier" mapstructure:"spike_multiplier"`
	// Window and hop for the short-time energy dynamics.
	DynamicsWindow int `json:"dynamics_window" yaml:"dynamics_window" mapstructure:"dynamics_window"`
	DynamicsHop    int `json:"dynamics_hop" yaml:"dynamics_hop" mapstructure:"dynamics_hop"`
}

func DefaultConfig() Config {
	return Config{
		SpikeFrameSize:  1024,
		SpikeMultiplier: 1.5,
		DynamicsWindow:  1024,
		DynamicsHop:     512,
	}
}

// Stats holds the energy-side evidence for one utterance.
type Stats struct {
	RMSEnergy     float64 `json:"rmsEnergy"`
	MeanAmplitude float64 `json:"energy"`

	VolumeSpikeCount        int     `json:"volumeSpikeCount"`
	VolumeSpikeAvgIntensity float64 `json:"volumeSpikeAvgIntensity"`

	ZeroCrossingRate float64 `json:"zeroCrossingRate"`

	// SpeechRate is words per second; zero when no transcript was supplied.
	SpeechRate float64 `json:"speechRate"`
	WordCount  int     `json:"wordCount"`

	EnergyVariance float64 `json:"energyVariance"`
	LoudnessRange  float64 `json:"loudnessRange"`
}

type Analyzer struct {
	config Config
	logger logging.Logger
}

func NewAnalyzer(cfg Config, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Analyzer{
		config: cfg,
		logger: logger.WithFields(logging.Fields{
			"component": "energy_analyzer",
		}),
	}
}

// Analyze never fails. Empty buffers produce zero-valued stats.
func (a *Analyzer) Analyze(pcm []float64, sampleRate int, transcript string) Stats {
	stats := Stats{
		RMSEnergy:        calculateRMSEnergy(pcm),
		MeanAmplitude:    calculateMeanAmplitude(pcm),
		ZeroCrossingRate: calculateZeroCrossingRate(pcm),
	}

	stats.VolumeSpikeCount, stats.VolumeSpikeAvgIntensity = a.detectVolumeSpikes(pcm, stats.MeanAmplitude)

	stats.WordCount = len(strings.Fields(transcript))
	if stats.WordCount > 0 && sampleRate > 0 && len(pcm) > 0 {
		duration := float64(len(pcm)) / float64(sampleRate)
		stats.SpeechRate = float64(stats.WordCount) / duration
	}

	stats.EnergyVariance, stats.LoudnessRange = a.dynamics(pcm, sampleRate)

	a.logger.Debug("Energy analysis completed", logging.Fields{
		"rms_energy":   stats.RMSEnergy,
		"spikes":       stats.VolumeSpikeCount,
		"zcr":          stats.ZeroCrossingRate,
		"speech_rate":  stats.SpeechRate,
		"sample_count": len(pcm),
	})

	return stats
}

// detectVolumeSpikes walks non-overlapping frames and counts those whose
// mean absolute amplitude exceeds the utterance mean by the configured
// multiplier. A trailing partial frame is ignored.
func (a *Analyzer) detectVolumeSpikes(pcm []float64, meanAmplitude float64) (int, float64) {
	size := a.config.SpikeFrameSize
	if size <= 0 || meanAmplitude == 0 {
		return 0, 0
	}

	threshold := meanAmplitude * a.config.SpikeMultiplier
	count := 0
	total := 0.0
	for start := 0; start+size <= len(pcm); start += size {
		frameEnergy := calculateMeanAmplitude(pcm[start : start+size])
		if frameEnergy > threshold {
			count++
			total += frameEnergy
		}
	}

	if count == 0 {
		return 0, 0
	}
	return count, total / float64(count)
}

func (a *Analyzer) dynamics(pcm []float64, sampleRate int) (float64, float64) {
	if sampleRate <= 0 || a.config.DynamicsWindow <= 0 || a.config.DynamicsHop <= 0 ||
		len(pcm) < a.config.DynamicsWindow {
		return 0, 0
	}

	energy := temporal.NewEnergy(a.config.DynamicsWindow, a.config.DynamicsHop, sampleRate)
	shortTime := energy.ComputeShortTimeEnergy(pcm)
	variance := energy.ComputeEnergyVariance(shortTime)
	loudness := energy.ComputeLoudnessRange(pcm)

	return finiteOrZero(variance), finiteOrZero(loudness)
}

// calculateRMSEnergy computes root-mean-square energy
func calculateRMSEnergy(pcm []float64) float64 {
	if len(pcm) == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range pcm {
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

func calculateMeanAmplitude(pcm []float64) float64 {
	if len(pcm) == 0 {
		return 0
	}
	sum := 0.0
	for _, sample := range pcm {
		sum += math.Abs(sample)
	}
	return sum / float64(len(pcm))
}

// calculateZeroCrossingRate counts sign changes (zero counts as positive)
// and divides by the total sample count.
func calculateZeroCrossingRate(pcm []float64) float64 {
	if len(pcm) <= 1 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(pcm); i++ {
		if (pcm[i-1] >= 0) != (pcm[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(pcm))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
