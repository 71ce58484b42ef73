// Package smoothing stabilizes features and decisions across consecutive
// utterances of one session.
package smoothing

// DefaultAlpha weights the newest observation in the feature EMA.
const DefaultAlpha = 0.35

// Observation is one utterance's raw features. Zero pitch or speech rate
// means the channel was not observed and is left untouched.
type Observation struct {
	PitchHz          float64
	RMSEnergy        float64
	MeanAmplitude    float64
	ZeroCrossingRate float64
	SpeechRate       float64
}

// Snapshot holds the smoothed values. Unseeded channels read as zero.
type Snapshot struct {
	PitchHz          float64 `json:"pitch"`
	RMSEnergy        float64 `json:"rmsEnergy"`
	MeanAmplitude    float64 `json:"energy"`
	ZeroCrossingRate float64 `json:"zeroCrossingRate"`
	SpeechRate       float64 `json:"speechRate"`
}

type channel struct {
	value  float64
	seeded bool
}

func (c *channel) update(x, alpha float64) {
	if !c.seeded {
		c.value = x
		c.seeded = true
		return
	}
	c.value = alpha*x + (1-alpha)*c.value
}

// FeatureEMA is not safe for concurrent use; the owning session serializes
// access.
type FeatureEMA struct {
	alpha float64

	pitch      channel
	rms        channel
	amplitude  channel
	zcr        channel
	speechRate channel
}

func NewFeatureEMA(alpha float64) *FeatureEMA {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &FeatureEMA{alpha: alpha}
}

func (e *FeatureEMA) Update(obs Observation) Snapshot {
	if obs.PitchHz > 0 {
		e.pitch.update(obs.PitchHz, e.alpha)
	}
	e.rms.update(obs.RMSEnergy, e.alpha)
	e.amplitude.update(obs.MeanAmplitude, e.alpha)
	e.zcr.update(obs.ZeroCrossingRate, e.alpha)
	if obs.SpeechRate > 0 {
		e.speechRate.update(obs.SpeechRate, e.alpha)
	}
	return e.Snapshot()
}

func (e *FeatureEMA) Snapshot() Snapshot {
	return Snapshot{
		PitchHz:          e.pitch.value,
		RMSEnergy:        e.rms.value,
		MeanAmplitude:    e.amplitude.value,
		ZeroCrossingRate: e.zcr.value,
		SpeechRate:       e.speechRate.value,
	}
}

func (e *FeatureEMA) Reset() {
	e.pitch = channel{}
	e.rms = channel{}
	e.amplitude = channel{}
	e.zcr = channel{}
	e.speechRate = channel{}
}
