// Package calibration tracks a speaker's baseline pitch and re-centers
// utterance pitch against it.
package calibration

import (
	"context"
	"fmt"
	"math"
)

type Status string

const (
	StatusUncalibrated   Status = "uncalibrated"
	StatusAutoCalibrated Status = "auto_calibrated"
	StatusUserCalibrated Status = "user_calibrated"
)

// DefaultReferenceHz is the register a speaker's baseline is mapped onto.
const DefaultReferenceHz = 170.0

// State is the persisted calibration record. BaselineHz is nil until the
// first voiced utterance or an explicit calibration.
type State struct {
	BaselineHz     *float64 `json:"baselineHz"`
	Calibrated     bool     `json:"calibrated"`
	AutoCalibrated bool     `json:"autoCalibrated"`
}

func (s State) Status() Status {
	switch {
	case !s.Calibrated || s.BaselineHz == nil:
		return StatusUncalibrated
	case s.AutoCalibrated:
		return StatusAutoCalibrated
	default:
		return StatusUserCalibrated
	}
}

// Observe auto-calibrates from the first voiced utterance. Once a baseline
// exists it is left alone; only Recalibrate and Reset change it.
func (s *State) Observe(averageHz float64) bool {
	if s.BaselineHz != nil || !validPitch(averageHz) {
		return false
	}
	baseline := averageHz
	s.BaselineHz = &baseline
	s.Calibrated = true
	s.AutoCalibrated = true
	return true
}

func (s *State) Recalibrate(baselineHz float64) error {
	if !validPitch(baselineHz) {
		return fmt.Errorf("baseline pitch must be a positive finite frequency, got %v", baselineHz)
	}
	s.BaselineHz = &baselineHz
	s.Calibrated = true
	s.AutoCalibrated = false
	return nil
}

func (s *State) Reset() {
	s.BaselineHz = nil
	s.Calibrated = false
	s.AutoCalibrated = false
}

// Normalize maps averageHz from the speaker's register onto referenceHz.
// Without a baseline, or with a non-positive reference, the raw average is
// returned.
func (s State) Normalize(averageHz, referenceHz float64) float64 {
	if !s.Calibrated || s.BaselineHz == nil || *s.BaselineHz <= 0 || referenceHz <= 0 {
		return averageHz
	}
	return averageHz * (referenceHz / *s.BaselineHz)
}

func (s State) Clone() State {
	c := s
	if s.BaselineHz != nil {
		b := *s.BaselineHz
		c.BaselineHz = &b
	}
	return c
}

// Store persists calibration records keyed by user or session.
type Store interface {
	Load(ctx context.Context, key string) (State, bool, error)
	Save(ctx context.Context, key string, state State) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func validPitch(hz float64) bool {
	return hz > 0 && !math.IsNaN(hz) && !math.IsInf(hz, 0)
}
