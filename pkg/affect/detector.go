package affect

import (
	"context"

	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
)

// UtteranceDetector analyzes each utterance from its own features.
type UtteranceDetector struct {
	*Session
}

func NewUtteranceDetector(session *Session) *UtteranceDetector {
	return &UtteranceDetector{Session: session}
}

func (d *UtteranceDetector) Analyze(ctx context.Context, utt Utterance) (*fusion.Result, error) {
	return d.analyze(ctx, utt, false)
}

// ContinuousDetector feeds exponentially smoothed features into fusion,
// which suits a stream of short chunks from the same speaker.
type ContinuousDetector struct {
	*Session
}

func NewContinuousDetector(session *Session) *ContinuousDetector {
	return &ContinuousDetector{Session: session}
}

func (d *ContinuousDetector) Analyze(ctx context.Context, utt Utterance) (*fusion.Result, error) {
	return d.analyze(ctx, utt, true)
}

type Mode string

const (
	ModeUtterance  Mode = "utterance"
	ModeContinuous Mode = "continuous"
)

// NewDetector picks the detector for mode, defaulting to per-utterance.
func NewDetector(mode Mode, session *Session) Detector {
	if mode == ModeContinuous {
		return NewContinuousDetector(session)
	}
	return NewUtteranceDetector(session)
}

var (
	_ Detector = (*UtteranceDetector)(nil)
	_ Detector = (*ContinuousDetector)(nil)
)
