package energy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, amplitude float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	pcm := make([]float64, n)
	for i := range pcm {
		pcm[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return pcm
}

func TestAnalyzeSine(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig(), nil)
	stats := analyzer.Analyze(sine(100, 0.5, 16000, 1.0), 16000, "")

	assert.InDelta(t, 0.5/math.Sqrt2, stats.RMSEnergy, 1e-3)
	assert.InDelta(t, 0.5*2/math.Pi, stats.MeanAmplitude, 1e-3)
	// 100 Hz crosses zero twice per cycle.
	assert.InDelta(t, 200.0/16000.0, stats.ZeroCrossingRate, 1e-3)
	assert.Zero(t, stats.VolumeSpikeCount)
	assert.Zero(t, stats.SpeechRate, "no transcript")
	assert.GreaterOrEqual(t, stats.EnergyVariance, 0.0)
}

func TestAnalyzeSpeechRate(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig(), nil)
	stats := analyzer.Analyze(sine(100, 0.2, 16000, 2.0), 16000, "one two three four five six")

	assert.Equal(t, 6, stats.WordCount)
	assert.InDelta(t, 3.0, stats.SpeechRate, 1e-9)
}

func TestVolumeSpikes(t *testing.T) {
	cfg := DefaultConfig()
	analyzer := NewAnalyzer(cfg, nil)

	pcm := make([]float64, cfg.SpikeFrameSize*10)
	for i := range pcm {
		pcm[i] = 0.05
	}
	// Two loud frames among eight quiet ones.
	for _, frame := range []int{3, 7} {
		for i := frame * cfg.SpikeFrameSize; i < (frame+1)*cfg.SpikeFrameSize; i++ {
			pcm[i] = 0.8
		}
	}

	stats := analyzer.Analyze(pcm, 16000, "")
	require.Equal(t, 2, stats.VolumeSpikeCount)
	assert.InDelta(t, 0.8, stats.VolumeSpikeAvgIntensity, 1e-9)
}

func TestAnalyzeEmptyAndShort(t *testing.T) {
	analyzer := NewAnalyzer(DefaultConfig(), nil)

	empty := analyzer.Analyze(nil, 16000, "hello there")
	assert.Zero(t, empty.RMSEnergy)
	assert.Zero(t, empty.SpeechRate)
	assert.Zero(t, empty.LoudnessRange)

	short := analyzer.Analyze([]float64{0.1, -0.1, 0.1}, 16000, "")
	assert.Zero(t, short.EnergyVariance)
	assert.Zero(t, short.LoudnessRange)
}

func TestZeroCrossingRate(t *testing.T) {
	type test struct {
		name     string
		pcm      []float64
		expected float64
	}

	tests := []test{
		{name: "single sample", pcm: []float64{0.3}, expected: 0},
		{name: "alternating", pcm: []float64{1, -1, 1, -1}, expected: 3.0 / 4.0},
		{name: "zero counts as positive", pcm: []float64{0, 0.5, -0.5, 0}, expected: 2.0 / 4.0},
		{name: "constant", pcm: []float64{0.2, 0.2, 0.2}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, calculateZeroCrossingRate(tt.pcm), 1e-12)
		})
	}
}
