package affect

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/energy"
	"github.com/RyanBlaney/affect-fusion/pkg/audio/prosody"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/affect-fusion/pkg/smoothing"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/google/uuid"
)

// Session owns the mutable state of one speaker: calibration, recent
// decisions and smoothed features. Analysis calls on a session are
// serialized on its mutex; independent sessions run in parallel.
type Session struct {
	id     string
	key    string
	config Config
	store  calibration.Store
	logger logging.Logger

	pitch  *prosody.Extractor
	energy *energy.Analyzer
	scorer *lexicon.Scorer
	engine *fusion.Engine

	mu          sync.Mutex
	calibration calibration.State
	lastPitchHz float64
	buffer      *smoothing.DecisionBuffer
	ema         *smoothing.FeatureEMA
	started     bool
	stopped     bool
}

type SessionOption func(*sessionOptions)

type sessionOptions struct {
	id     string
	key    string
	store  calibration.Store
	logger logging.Logger
	clock  func() time.Time
}

func WithSessionID(id string) SessionOption {
	return func(o *sessionOptions) { o.id = id }
}

// WithCalibrationKey sets the key calibration is persisted under. It
// defaults to the session ID.
func WithCalibrationKey(key string) SessionOption {
	return func(o *sessionOptions) { o.key = key }
}

func WithStore(store calibration.Store) SessionOption {
	return func(o *sessionOptions) { o.store = store }
}

func WithLogger(logger logging.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = logger }
}

func WithClock(now func() time.Time) SessionOption {
	return func(o *sessionOptions) { o.clock = now }
}

func NewSession(table *lexicon.Table, cfg Config, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.key == "" {
		o.key = o.id
	}
	if o.logger == nil {
		o.logger = logging.NewDefaultLogger()
	}
	if table == nil {
		table = lexicon.DefaultTable()
	}

	scorer, err := lexicon.NewScorer(table, cfg.Scoring, o.logger)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "affect.NewSession", "invalid pattern table", err)
	}

	return &Session{
		id:     o.id,
		key:    o.key,
		config: cfg,
		store:  o.store,
		logger: o.logger.WithFields(logging.Fields{
			"component":  "affect_session",
			"session_id": o.id,
		}),
		pitch:  prosody.NewExtractor(cfg.Prosody, o.logger),
		energy: energy.NewAnalyzer(cfg.Energy, o.logger),
		scorer: scorer,
		engine: fusion.NewEngine(table, cfg.Fusion, o.logger),
		buffer: smoothing.NewDecisionBuffer(cfg.Decision,
			smoothing.WithClock(o.clock),
			smoothing.WithPriority(table.Rank),
		),
		ema: smoothing.NewFeatureEMA(cfg.EMAAlpha),
	}, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Key() string { return s.key }

// Start loads any persisted calibration for the session key.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started && !s.stopped {
		return nil
	}

	if s.store != nil {
		state, found, err := s.store.Load(ctx, s.key)
		if err != nil {
			return errors.Wrap(errors.KindStorage, "affect.Start", "failed to load calibration", err)
		}
		if found {
			s.calibration = state
		}
	}

	s.started = true
	s.stopped = false

	s.logger.Debug("Session started", logging.Fields{
		"calibration_key": s.key,
		"calibration":     string(s.calibration.Status()),
	})
	return nil
}

// Stop ends the session. Calibration is persisted as it changes, so there is
// nothing to flush.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.logger.Debug("Session stopped", logging.Fields{
		"history": s.buffer.Len(),
	})
	return nil
}

func (s *Session) Calibration() calibration.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibration.Clone()
}

func (s *Session) History() []smoothing.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer.Entries()
}

// Recalibrate makes baselineHz the user-chosen baseline.
func (s *Session) Recalibrate(ctx context.Context, baselineHz float64) (calibration.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.calibration.Clone()
	if err := next.Recalibrate(baselineHz); err != nil {
		return s.calibration.Clone(), errors.Wrap(errors.KindMalformedInput, "affect.Recalibrate", "invalid baseline", err)
	}
	return s.commitCalibration(ctx, next, "affect.Recalibrate")
}

// RecalibrateFromLast uses the pitch average of the most recent voiced
// utterance as the new baseline.
func (s *Session) RecalibrateFromLast(ctx context.Context) (calibration.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastPitchHz <= 0 {
		return s.calibration.Clone(), errors.New(errors.KindState, "affect.RecalibrateFromLast", "no voiced utterance analyzed yet")
	}

	next := s.calibration.Clone()
	if err := next.Recalibrate(s.lastPitchHz); err != nil {
		return s.calibration.Clone(), errors.Wrap(errors.KindState, "affect.RecalibrateFromLast", "invalid baseline", err)
	}
	return s.commitCalibration(ctx, next, "affect.RecalibrateFromLast")
}

func (s *Session) ResetCalibration(ctx context.Context) (calibration.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.calibration.Clone()
	next.Reset()
	return s.commitCalibration(ctx, next, "affect.ResetCalibration")
}

// commitCalibration persists first so a failed write leaves the in-memory
// state untouched. Callers hold s.mu.
func (s *Session) commitCalibration(ctx context.Context, next calibration.State, op string) (calibration.State, error) {
	if err := ctx.Err(); err != nil {
		return s.calibration.Clone(), err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, s.key, next); err != nil {
			return s.calibration.Clone(), errors.Wrap(errors.KindStorage, op, "failed to persist calibration", err)
		}
	}
	s.calibration = next

	s.logger.Info("Calibration updated", logging.Fields{
		"status":      string(next.Status()),
		"baseline_hz": baselineValue(next),
	})
	return next.Clone(), nil
}

// analyze runs one utterance through the pipeline. Feature extraction and
// lexical scoring run outside the lock; state changes are committed only
// when ctx is still live.
func (s *Session) analyze(ctx context.Context, utt Utterance, smoothFeatures bool) (*fusion.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validate(utt); err != nil {
		return nil, err
	}

	var (
		profile *prosody.Profile
		stats   energy.Stats
	)
	if utt.Audio != nil {
		profile = s.pitch.Extract(utt.Audio.Samples, utt.Audio.SampleRate)
		stats = s.energy.Analyze(utt.Audio.Samples, utt.Audio.SampleRate, utt.Transcript)
	} else {
		s.logger.Debug("No audio supplied, using transcript only", logging.Fields{
			"kind": string(errors.KindDegraded),
		})
	}
	lexical := s.scorer.Score(utt.Transcript)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil, errors.New(errors.KindState, "affect.Analyze", "session is not running")
	}

	cal := s.calibration.Clone()
	autoCalibrated := false
	ema := *s.ema

	var features *fusion.Features
	if utt.Audio != nil {
		features = &fusion.Features{
			Pitch:       profile,
			Energy:      stats,
			DurationSec: utt.Audio.Duration().Seconds(),
		}
		pitchHz := 0.0
		if profile != nil {
			autoCalibrated = cal.Observe(profile.Average)
			pitchHz = profile.Average
		}

		if smoothFeatures {
			snap := ema.Update(smoothing.Observation{
				PitchHz:          pitchHz,
				RMSEnergy:        stats.RMSEnergy,
				MeanAmplitude:    stats.MeanAmplitude,
				ZeroCrossingRate: stats.ZeroCrossingRate,
				SpeechRate:       stats.SpeechRate,
			})
			pitchHz = snap.PitchHz
			features.Energy.RMSEnergy = snap.RMSEnergy
			features.Energy.MeanAmplitude = snap.MeanAmplitude
			features.Energy.ZeroCrossingRate = snap.ZeroCrossingRate
			features.Energy.SpeechRate = snap.SpeechRate
		}

		if profile != nil {
			features.CalibratedPitchHz = cal.Normalize(pitchHz, s.config.ReferenceHz)
		}
	}

	result := s.engine.Fuse(fusion.Input{
		Transcript: utt.Transcript,
		Lexical:    lexical,
		Voice:      features,
		External:   utt.ExternalScores,
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Commit.
	s.calibration = cal
	*s.ema = ema
	if profile != nil {
		s.lastPitchHz = profile.Average
	}

	s.buffer.Add(result.EmotionLabel, result.Confidence)
	if decision, ok := s.buffer.Decide(); ok && decision.Label != result.EmotionLabel {
		s.logger.Debug("Decision buffer overrides instantaneous result", logging.Fields{
			"instant": result.EmotionLabel,
			"voted":   decision.Label,
			"votes":   decision.Votes,
		})
		result.EmotionLabel = decision.Label
		result.Confidence = decision.Confidence
		result.Source = fusion.SourceSmoothed
	}

	if autoCalibrated && s.store != nil {
		if err := s.store.Save(ctx, s.key, cal); err != nil {
			s.logger.Warn("Failed to persist auto-calibration", logging.Fields{
				"error": err.Error(),
			})
		}
	}

	s.logger.Debug("Utterance analyzed", logging.Fields{
		"emotion":    result.EmotionLabel,
		"confidence": result.Confidence,
		"source":     string(result.Source),
		"smoothed":   smoothFeatures,
	})

	return result, nil
}

func validate(utt Utterance) error {
	if utt.Audio == nil {
		return nil
	}
	if utt.Audio.SampleRate <= 0 {
		return errors.New(errors.KindMalformedInput, "affect.Analyze", "sample rate must be positive")
	}
	if len(utt.Audio.Samples) == 0 {
		return errors.New(errors.KindMalformedInput, "affect.Analyze", "audio buffer is empty")
	}
	for _, s := range utt.Audio.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return errors.New(errors.KindMalformedInput, "affect.Analyze", "audio contains non-finite samples")
		}
	}
	return nil
}

func baselineValue(state calibration.State) any {
	if state.BaselineHz == nil {
		return nil
	}
	return *state.BaselineHz
}
