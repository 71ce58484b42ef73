package lexicon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultTable(), DefaultScoringConfig(), nil)
	require.NoError(t, err)
	return scorer
}

func TestScoreTopEmotion(t *testing.T) {
	type test struct {
		name       string
		transcript string
		expected   string
	}

	tests := []test{
		{name: "joy", transcript: "I am absolutely thrilled and excited about this incredible news!", expected: "joy"},
		{name: "sadness", transcript: "I feel so lonely and miserable since the loss of my dog", expected: "sadness"},
		{name: "anger", transcript: "I am furious, this is completely unacceptable and I hate it", expected: "anger"},
		{name: "fear", transcript: "I'm terrified and scared, please someone help me", expected: "fear"},
		{name: "surprise", transcript: "I was completely shocked and stunned, I didn't expect that", expected: "surprise"},
		{name: "neutral", transcript: "It was an ordinary and normal day, nothing special", expected: "neutral"},
	}

	scorer := newTestScorer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(tt.transcript)
			top, score := result.Top()
			assert.Equal(t, tt.expected, top)
			assert.Greater(t, score, 0.0)
			assert.NotEmpty(t, result.Scores[top].Evidence)
		})
	}
}

func TestScoreShortTranscriptIsZero(t *testing.T) {
	scorer := newTestScorer(t)

	for _, transcript := range []string{"", "   ", "happy!", "so happy"} {
		result := scorer.Score(transcript)
		assert.True(t, result.Empty(), "transcript %q", transcript)
		assert.Len(t, result.Scores, 6)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	scorer := newTestScorer(t)
	transcript := "Wow, I can't believe it. I'm so happy! This is amazing news."

	first := scorer.Score(transcript)
	second := scorer.Score(transcript)
	assert.Equal(t, first, second)
}

func TestNegationReducesButNeverNegative(t *testing.T) {
	scorer := newTestScorer(t)

	negated := scorer.Score("I am not happy at all").Score("joy")
	plain := scorer.Score("I am happy at all").Score("joy")

	assert.Greater(t, plain, 0.0)
	assert.Less(t, negated, plain)
	assert.GreaterOrEqual(t, negated, 0.0)

	// Stacked negations still floor at zero.
	stacked := scorer.Score("not happy, never glad, no fun, not pleased").Score("joy")
	assert.GreaterOrEqual(t, stacked, 0.0)
}

func TestRepeatedNegationEarnsNoThemeBonus(t *testing.T) {
	scorer := newTestScorer(t)

	negated := scorer.Score("I am not happy. I am not happy.")
	affirmed := scorer.Score("I am happy today.").Score("joy")

	assert.LessOrEqual(t, negated.Score("joy"), affirmed)
	assert.NotContains(t, strings.Join(negated.Scores["joy"].Evidence, "; "), "theme across")

	// One affirmed mention alongside a negated one is still a single sentence.
	mixed := scorer.Score("I am not happy. Well, I am happy.")
	assert.NotContains(t, strings.Join(mixed.Scores["joy"].Evidence, "; "), "theme across")

	both := scorer.Score("I am happy. I am so glad.")
	assert.Contains(t, strings.Join(both.Scores["joy"].Evidence, "; "), "theme across 2 sentences")
}

func TestIntensifierBonus(t *testing.T) {
	scorer := newTestScorer(t)

	boosted := scorer.Score("I am really annoyed about the delay").Score("anger")
	plain := scorer.Score("I am annoyed about the delay today").Score("anger")

	assert.InDelta(t, plain+DefaultScoringConfig().IntensifierBonus, boosted, 1e-9)
}

func TestContextPhraseAndConsistency(t *testing.T) {
	scorer := newTestScorer(t)
	cfg := DefaultScoringConfig()

	single := scorer.Score("I honestly love it here today").Score("joy")
	// "love" keyword plus the "love it" phrase.
	assert.InDelta(t, 1.0+cfg.ContextPhraseBonus, single, 1e-9)

	spread := scorer.Score("The party was fun. We laughed a lot. The food was great!")
	evidence := strings.Join(spread.Scores["joy"].Evidence, "; ")
	assert.Contains(t, evidence, "theme across 2 sentences")
}

func TestTieBreakUsesPriorityOrder(t *testing.T) {
	table := &Table{
		Patterns: []Pattern{
			{Label: "calm", KeywordGroups: []KeywordGroup{group(1, "steady")}, TextWeight: 1, VoiceWeight: 1},
			{Label: "tense", KeywordGroups: []KeywordGroup{group(1, "steady")}, TextWeight: 1, VoiceWeight: 1},
		},
	}
	require.NoError(t, table.Compile())

	scorer, err := NewScorer(table, DefaultScoringConfig(), nil)
	require.NoError(t, err)

	top, _ := scorer.Score("the line stays steady all night").Top()
	assert.Equal(t, "calm", top)
}

func TestNormalizeHandlesCaseAndApostrophes(t *testing.T) {
	scorer := newTestScorer(t)

	typographic := scorer.Score("I CAN’T BELIEVE how SHOCKED I am").Score("surprise")
	ascii := scorer.Score("i can't believe how shocked i am").Score("surprise")
	assert.InDelta(t, ascii, typographic, 1e-9)
	assert.Greater(t, ascii, 0.0)
}

func TestSarcasmMarkers(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.MatchesSarcasm("Oh great, that's just wonderful"))
	assert.True(t, table.MatchesSarcasm("Yeah RIGHT, like that will work"))
	assert.False(t, table.MatchesSarcasm("The weather is pleasant today"))
}

func TestNewScorerRequiresCompiledTable(t *testing.T) {
	_, err := NewScorer(&Table{}, DefaultScoringConfig(), nil)
	assert.Error(t, err)
}

func TestParseYAMLRoundTrip(t *testing.T) {
	data, err := DefaultTable().EncodeYAML()
	require.NoError(t, err)

	table, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable().Labels(), table.Labels())

	anger, ok := table.Pattern("anger")
	require.True(t, ok)
	assert.Equal(t, 3, anger.Voice.SpikeMinCount)
}

func TestParseRejectsInvalidTables(t *testing.T) {
	type test struct {
		name string
		data string
	}

	tests := []test{
		{name: "empty", data: `patterns: []`},
		{name: "missing label", data: `
patterns:
  - keyword_groups: [{terms: [calm], weight: 1}]
    text_weight: 1
`},
		{name: "optimum outside range", data: `
patterns:
  - label: calm
    keyword_groups: [{terms: [calm], weight: 1}]
    voice: {pitch_min: 100, pitch_max: 200, pitch_optimal: 300}
    text_weight: 1
`},
		{name: "bad regex", data: `
patterns:
  - label: calm
    keyword_groups: [{pattern: "(unclosed", weight: 1}]
    text_weight: 1
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseJSON(t *testing.T) {
	table, err := ParseJSON([]byte(`{
		"patterns": [
			{"label": "calm", "keywordGroups": [{"terms": ["serene"], "weight": 1}], "textWeight": 1, "voiceWeight": 0}
		],
		"negators": ["not"]
	}`))
	require.NoError(t, err)

	scorer, err := NewScorer(table, DefaultScoringConfig(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scorer.Score("the lake felt serene tonight").Score("calm"), 1e-9)
	assert.InDelta(t, 0.2, scorer.Score("the lake was not serene tonight").Score("calm"), 1e-9)
}
