package lexicon

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// ScoringConfig holds the bonuses and windows applied on top of raw keyword
// matches.
type ScoringConfig struct {
	ContextPhraseBonus float64 `json:"context_phrase_bonus" yaml:"context_phrase_bonus" mapstructure:"context_phrase_bonus"`
	IntensifierBonus   float64 `json:"intensifier_bonus" yaml:"intensifier_bonus" mapstructure:"intensifier_bonus"`
	IntensifierWindow  int     `json:"intensifier_window" yaml:"intensifier_window" mapstructure:"intensifier_window"`
	NegationPenalty    float64 `json:"negation_penalty" yaml:"negation_penalty" mapstructure:"negation_penalty"`
	NegationWindow     int     `json:"negation_window" yaml:"negation_window" mapstructure:"negation_window"`
	ConsistencyBonus   float64 `json:"consistency_bonus" yaml:"consistency_bonus" mapstructure:"consistency_bonus"`
	MinTranscriptChars int     `json:"min_transcript_chars" yaml:"min_transcript_chars" mapstructure:"min_transcript_chars"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ContextPhraseBonus: 2.0,
		IntensifierBonus:   0.5,
		IntensifierWindow:  2,
		NegationPenalty:    0.8,
		NegationWindow:     2,
		ConsistencyBonus:   0.5,
		MinTranscriptChars: 15,
	}
}

type EmotionScore struct {
	RawScore float64  `json:"rawScore"`
	Evidence []string `json:"evidence"`
}

// Result carries one score per emotion in the table, in priority order.
type Result struct {
	Scores map[string]*EmotionScore `json:"scores"`
	Order  []string                 `json:"order"`
}

// Top returns the best scoring emotion. Ties go to the earlier label.
func (r *Result) Top() (string, float64) {
	best, bestScore := "", -1.0
	for _, label := range r.Order {
		if s := r.Scores[label].RawScore; s > bestScore {
			best, bestScore = label, s
		}
	}
	return best, bestScore
}

func (r *Result) Score(label string) float64 {
	if s, ok := r.Scores[label]; ok {
		return s.RawScore
	}
	return 0
}

// Empty reports whether no emotion received any evidence.
func (r *Result) Empty() bool {
	for _, s := range r.Scores {
		if s.RawScore > 0 {
			return false
		}
	}
	return true
}

// Scorer is stateless apart from its read-only table and is safe for
// concurrent use.
type Scorer struct {
	table  *Table
	config ScoringConfig
	logger logging.Logger
}

func NewScorer(table *Table, cfg ScoringConfig, logger logging.Logger) (*Scorer, error) {
	if table == nil || !table.Compiled() {
		return nil, fmt.Errorf("scorer requires a compiled pattern table")
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Scorer{
		table:  table,
		config: cfg,
		logger: logger.WithFields(logging.Fields{
			"component": "lexical_scorer",
		}),
	}, nil
}

func (s *Scorer) Table() *Table {
	return s.table
}

func (s *Scorer) Config() ScoringConfig {
	return s.config
}

// Score rates the transcript against every emotion in the table. Short
// transcripts produce an all-zero result.
func (s *Scorer) Score(transcript string) *Result {
	result := &Result{
		Scores: make(map[string]*EmotionScore, len(s.table.Patterns)),
		Order:  s.table.Labels(),
	}
	for _, label := range result.Order {
		result.Scores[label] = &EmotionScore{}
	}

	if utf8.RuneCountInString(strings.TrimSpace(transcript)) < s.config.MinTranscriptChars {
		return result
	}

	text := Normalize(transcript)
	tokens := tokenize(text)
	sentences := splitSentences(text)

	for i := range s.table.Patterns {
		p := &s.table.Patterns[i]
		s.scorePattern(p, text, tokens, result.Scores[p.Label])
	}

	top, score := result.Top()
	s.logger.Debug("Transcript scored", logging.Fields{
		"top_emotion": top,
		"top_score":   score,
		"tokens":      len(tokens),
		"sentences":   len(sentences),
	})

	return result
}

func (s *Scorer) scorePattern(p *Pattern, text string, tokens []token, out *EmotionScore) {
	raw := 0.0
	boundaries := sentencePattern.FindAllStringIndex(text, -1)
	affirmed := make(map[int]struct{})

	for _, g := range p.KeywordGroups {
		for _, span := range g.re.FindAllStringIndex(text, -1) {
			keyword := text[span[0]:span[1]]
			raw += g.Weight

			idx := tokenAt(tokens, span[0])
			if negator, ok := precededBy(tokens, idx, s.config.NegationWindow, p.negators); ok {
				raw -= g.Weight * s.config.NegationPenalty
				if raw < 0 {
					raw = 0
				}
				out.Evidence = append(out.Evidence, fmt.Sprintf("negated %q by %q", keyword, negator))
				continue
			}

			affirmed[sentenceIndex(boundaries, span[0])] = struct{}{}
			out.Evidence = append(out.Evidence, fmt.Sprintf("keyword %q (weight %.2f)", keyword, g.Weight))
			if intensifier, ok := precededBy(tokens, idx, s.config.IntensifierWindow, p.intensifiers); ok {
				raw += s.config.IntensifierBonus
				out.Evidence = append(out.Evidence, fmt.Sprintf("intensifier %q before %q", intensifier, keyword))
			}
		}
	}

	for _, phrase := range p.phrases {
		if n := strings.Count(text, phrase); n > 0 {
			raw += float64(n) * s.config.ContextPhraseBonus
			out.Evidence = append(out.Evidence, fmt.Sprintf("context phrase %q x%d", phrase, n))
		}
	}

	// Only sentences with an affirmed keyword count toward the theme.
	if involved := len(affirmed); involved > 1 {
		raw += s.config.ConsistencyBonus * float64(involved)
		out.Evidence = append(out.Evidence, fmt.Sprintf("theme across %d sentences", involved))
	}

	out.RawScore = raw
}

func precededBy(tokens []token, idx, window int, words map[string]struct{}) (string, bool) {
	for i := idx - 1; i >= 0 && i >= idx-window; i-- {
		if _, ok := words[tokens[i].text]; ok {
			return tokens[i].text, true
		}
	}
	return "", false
}

// sentenceIndex maps a byte offset in text to the sentence containing it.
func sentenceIndex(boundaries [][]int, offset int) int {
	idx := 0
	for _, b := range boundaries {
		if b[1] > offset {
			break
		}
		idx++
	}
	return idx
}
