// Package lexicon holds the emotion pattern table and the rule-based
// transcript scorer built on top of it.
package lexicon

import (
	"fmt"
	"regexp"
	"strings"
)

type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
	ValenceNeutral  Valence = "neutral"
)

// KeywordGroup is a weighted set of cue words. Terms are matched literally
// on word boundaries; Pattern, when set, is used as a raw expression.
type KeywordGroup struct {
	Terms   []string `json:"terms,omitempty" yaml:"terms,omitempty"`
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Weight  float64  `json:"weight" yaml:"weight"`

	re *regexp.Regexp
}

// VoiceRanges describes the prosodic region an emotion tends to occupy.
// Pitch is in Hz, energy is mean absolute amplitude, speech rate is words
// per second and tonal variation is the pitch variation ratio.
type VoiceRanges struct {
	PitchMin          float64 `json:"pitchMin" yaml:"pitch_min"`
	PitchMax          float64 `json:"pitchMax" yaml:"pitch_max"`
	PitchOptimal      float64 `json:"pitchOptimal" yaml:"pitch_optimal"`
	EnergyMin         float64 `json:"energyMin" yaml:"energy_min"`
	EnergyMax         float64 `json:"energyMax" yaml:"energy_max"`
	SpeechRateMin     float64 `json:"speechRateMin" yaml:"speech_rate_min"`
	SpeechRateMax     float64 `json:"speechRateMax" yaml:"speech_rate_max"`
	TonalVariationMin float64 `json:"tonalVariationMin" yaml:"tonal_variation_min"`
	TonalVariationMax float64 `json:"tonalVariationMax" yaml:"tonal_variation_max"`
	// SpikeMinCount enables the volume-spike cue when positive.
	SpikeMinCount int `json:"spikeMinCount,omitempty" yaml:"spike_min_count,omitempty"`
}

type Pattern struct {
	Label          string         `json:"label" yaml:"label"`
	Valence        Valence        `json:"valence" yaml:"valence"`
	KeywordGroups  []KeywordGroup `json:"keywordGroups" yaml:"keyword_groups"`
	ContextPhrases []string       `json:"contextPhrases,omitempty" yaml:"context_phrases,omitempty"`
	// Intensifiers and Negators extend the table-wide lists for this emotion.
	Intensifiers []string    `json:"intensifiers,omitempty" yaml:"intensifiers,omitempty"`
	Negators     []string    `json:"negators,omitempty" yaml:"negators,omitempty"`
	Voice        VoiceRanges `json:"voice" yaml:"voice"`
	TextWeight   float64     `json:"textWeight" yaml:"text_weight"`
	VoiceWeight  float64     `json:"voiceWeight" yaml:"voice_weight"`

	intensifiers map[string]struct{}
	negators     map[string]struct{}
	phrases      []string
}

// Table is the ordered pattern set. Order doubles as the tie-break priority.
// A compiled table is read-only and safe to share between sessions.
type Table struct {
	Patterns       []Pattern `json:"patterns" yaml:"patterns"`
	Intensifiers   []string  `json:"intensifiers" yaml:"intensifiers"`
	Negators       []string  `json:"negators" yaml:"negators"`
	SarcasmMarkers []string  `json:"sarcasmMarkers" yaml:"sarcasm_markers"`

	sarcasm  *regexp.Regexp
	index    map[string]int
	compiled bool
}

// Compile validates the table and prepares its matchers. It must be called
// before the table is handed to a Scorer.
func (t *Table) Compile() error {
	if len(t.Patterns) == 0 {
		return fmt.Errorf("pattern table has no emotions")
	}

	t.index = make(map[string]int, len(t.Patterns))
	for i := range t.Patterns {
		p := &t.Patterns[i]
		p.Label = strings.TrimSpace(p.Label)
		if p.Label == "" {
			return fmt.Errorf("pattern %d has no label", i)
		}
		if _, dup := t.index[p.Label]; dup {
			return fmt.Errorf("duplicate emotion label %q", p.Label)
		}
		t.index[p.Label] = i

		if err := p.compile(t.Intensifiers, t.Negators); err != nil {
			return fmt.Errorf("emotion %q: %w", p.Label, err)
		}
	}

	if len(t.SarcasmMarkers) > 0 {
		re, err := compileTerms(t.SarcasmMarkers)
		if err != nil {
			return fmt.Errorf("sarcasm markers: %w", err)
		}
		t.sarcasm = re
	}

	t.compiled = true
	return nil
}

func (t *Table) Compiled() bool {
	return t.compiled
}

// Labels returns emotion labels in priority order.
func (t *Table) Labels() []string {
	labels := make([]string, len(t.Patterns))
	for i, p := range t.Patterns {
		labels[i] = p.Label
	}
	return labels
}

func (t *Table) Pattern(label string) (*Pattern, bool) {
	i, ok := t.index[label]
	if !ok {
		return nil, false
	}
	return &t.Patterns[i], true
}

// Rank returns the priority of label, lower is preferred. Unknown labels
// rank last.
func (t *Table) Rank(label string) int {
	if i, ok := t.index[label]; ok {
		return i
	}
	return len(t.Patterns)
}

// MatchesSarcasm reports whether the transcript contains a sarcasm marker.
func (t *Table) MatchesSarcasm(transcript string) bool {
	if t.sarcasm == nil {
		return false
	}
	return t.sarcasm.MatchString(Normalize(transcript))
}

func (p *Pattern) compile(sharedIntensifiers, sharedNegators []string) error {
	if p.TextWeight < 0 || p.VoiceWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if p.TextWeight+p.VoiceWeight == 0 {
		return fmt.Errorf("text and voice weights are both zero")
	}
	if err := p.Voice.validate(); err != nil {
		return err
	}

	for i := range p.KeywordGroups {
		g := &p.KeywordGroups[i]
		if g.Weight < 0 {
			return fmt.Errorf("keyword group %d has negative weight", i)
		}

		var err error
		switch {
		case g.Pattern != "":
			g.re, err = regexp.Compile(`(?i)` + g.Pattern)
		case len(g.Terms) > 0:
			g.re, err = compileTerms(g.Terms)
		default:
			err = fmt.Errorf("empty")
		}
		if err != nil {
			return fmt.Errorf("keyword group %d: %w", i, err)
		}
	}

	p.intensifiers = wordSet(sharedIntensifiers, p.Intensifiers)
	p.negators = wordSet(sharedNegators, p.Negators)

	p.phrases = p.phrases[:0]
	for _, phrase := range p.ContextPhrases {
		if folded := Normalize(phrase); folded != "" {
			p.phrases = append(p.phrases, folded)
		}
	}

	return nil
}

func (v VoiceRanges) validate() error {
	if v.PitchMin > v.PitchMax {
		return fmt.Errorf("pitch range inverted")
	}
	if v.PitchOptimal < v.PitchMin || v.PitchOptimal > v.PitchMax {
		return fmt.Errorf("pitch optimum %.1f outside [%.1f, %.1f]", v.PitchOptimal, v.PitchMin, v.PitchMax)
	}
	if v.EnergyMin > v.EnergyMax {
		return fmt.Errorf("energy range inverted")
	}
	if v.SpeechRateMin > v.SpeechRateMax {
		return fmt.Errorf("speech rate range inverted")
	}
	if v.TonalVariationMin > v.TonalVariationMax {
		return fmt.Errorf("tonal variation range inverted")
	}
	return nil
}

// compileTerms builds one case-insensitive, word-bounded alternation.
func compileTerms(terms []string) (*regexp.Regexp, error) {
	alternatives := make([]string, 0, len(terms))
	for _, term := range terms {
		term = Normalize(term)
		if term == "" {
			continue
		}
		words := strings.Fields(term)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `\s+`))
	}
	if len(alternatives) == 0 {
		return nil, fmt.Errorf("no usable terms")
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
}

func wordSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			if w = Normalize(w); w != "" {
				set[w] = struct{}{}
			}
		}
	}
	return set
}
