package fusion

import (
	"math"
	"strings"
)

// labelAliases maps label spellings used by common text classifiers onto
// the pattern table's labels.
var labelAliases = map[string]string{
	"angry":       "anger",
	"annoyance":   "anger",
	"happy":       "joy",
	"happiness":   "joy",
	"excitement":  "joy",
	"amusement":   "joy",
	"sad":         "sadness",
	"grief":       "sadness",
	"scared":      "fear",
	"nervousness": "fear",
	"fearful":     "fear",
	"surprised":   "surprise",
	"boredom":     "neutral",
	"calm":        "neutral",
	"frustrated":  "frustration",
}

// CanonicalLabel lower-cases a classifier label and resolves known aliases.
func CanonicalLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if canonical, ok := labelAliases[label]; ok {
		return canonical
	}
	return label
}

// CanonicalScores folds a classifier's score map onto canonical labels.
// Scores for labels that collapse together are summed and capped at 1;
// negative and non-finite values are dropped.
func CanonicalScores(scores map[string]float64) map[string]float64 {
	if scores == nil {
		return nil
	}
	out := make(map[string]float64, len(scores))
	for label, score := range scores {
		if math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 {
			continue
		}
		key := CanonicalLabel(label)
		out[key] = min(1, out[key]+score)
	}
	return out
}
