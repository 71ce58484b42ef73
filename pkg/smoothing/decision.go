package smoothing

import (
	"sort"
	"time"
)

type DecisionConfig struct {
	Capacity             int           `json:"capacity" yaml:"capacity" mapstructure:"capacity"`
	Window               time.Duration `json:"window" yaml:"window" mapstructure:"window"`
	MinVotes             int           `json:"min_votes" yaml:"min_votes" mapstructure:"min_votes"`
	SingleVoteConfidence float64       `json:"single_vote_confidence" yaml:"single_vote_confidence" mapstructure:"single_vote_confidence"`
	MaxConfidence        float64       `json:"max_confidence" yaml:"max_confidence" mapstructure:"max_confidence"`
}

func DefaultDecisionConfig() DecisionConfig {
	return DecisionConfig{
		Capacity:             12,
		Window:               2500 * time.Millisecond,
		MinVotes:             2,
		SingleVoteConfidence: 0.75,
		MaxConfidence:        0.99,
	}
}

type Entry struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"ts"`
}

// Decision is the label voted by recent history.
type Decision struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Votes      int     `json:"votes"`
}

// DecisionBuffer keeps the most recent predictions in a fixed-size ring and
// votes over those inside the time window. The owning session serializes
// access.
type DecisionBuffer struct {
	config  DecisionConfig
	entries []Entry
	head    int
	size    int
	now     func() time.Time
	rank    func(label string) int
}

type Option func(*DecisionBuffer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *DecisionBuffer) { b.now = now }
}

// WithPriority breaks ranking ties; lower ranks win.
func WithPriority(rank func(label string) int) Option {
	return func(b *DecisionBuffer) { b.rank = rank }
}

func NewDecisionBuffer(cfg DecisionConfig, opts ...Option) *DecisionBuffer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultDecisionConfig().Capacity
	}
	b := &DecisionBuffer{
		config:  cfg,
		entries: make([]Entry, cfg.Capacity),
		now:     time.Now,
		rank:    func(string) int { return 0 },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add records a prediction, evicting the oldest entry when full.
func (b *DecisionBuffer) Add(label string, confidence float64) {
	pos := (b.head + b.size) % len(b.entries)
	if b.size == len(b.entries) {
		pos = b.head
		b.head = (b.head + 1) % len(b.entries)
	} else {
		b.size++
	}
	b.entries[pos] = Entry{Label: label, Confidence: confidence, Timestamp: b.now()}
}

func (b *DecisionBuffer) Len() int {
	return b.size
}

// Entries returns a copy of the buffer, oldest first.
func (b *DecisionBuffer) Entries() []Entry {
	out := make([]Entry, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

func (b *DecisionBuffer) Reset() {
	b.head = 0
	b.size = 0
}

type tally struct {
	label string
	sum   float64
	count int
}

func (t tally) avg() float64 {
	return t.sum / float64(t.count)
}

// Decide groups recent entries by label and ranks them by average
// confidence times vote count. The winner is returned only if it has enough
// votes or a single very confident one.
func (b *DecisionBuffer) Decide() (Decision, bool) {
	cutoff := b.now().Add(-b.config.Window)

	tallies := map[string]*tally{}
	for _, e := range b.Entries() {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		t, ok := tallies[e.Label]
		if !ok {
			t = &tally{label: e.Label}
			tallies[e.Label] = t
		}
		t.sum += e.Confidence
		t.count++
	}
	if len(tallies) == 0 {
		return Decision{}, false
	}

	ranked := make([]tally, 0, len(tallies))
	for _, t := range tallies {
		ranked = append(ranked, *t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		si := ranked[i].avg() * float64(ranked[i].count)
		sj := ranked[j].avg() * float64(ranked[j].count)
		if si != sj {
			return si > sj
		}
		if ri, rj := b.rank(ranked[i].label), b.rank(ranked[j].label); ri != rj {
			return ri < rj
		}
		return ranked[i].label < ranked[j].label
	})

	best := ranked[0]
	if best.count < b.config.MinVotes && best.avg() <= b.config.SingleVoteConfidence {
		return Decision{}, false
	}

	return Decision{
		Label:      best.label,
		Confidence: min(b.config.MaxConfidence, best.avg()),
		Votes:      best.count,
	}, true
}
