package lexicon

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	tokenPattern    = regexp.MustCompile(`[\p{L}\p{N}']+`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)

	apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")
	folder      = cases.Fold()
)

// Normalize composes, case-folds and trims text so cue matching is
// insensitive to case and typographic apostrophes.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = apostrophes.Replace(text)
	return strings.TrimSpace(folder.String(text))
}

type token struct {
	text       string
	start, end int
}

func tokenize(text string) []token {
	spans := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]token, len(spans))
	for i, span := range spans {
		tokens[i] = token{text: text[span[0]:span[1]], start: span[0], end: span[1]}
	}
	return tokens
}

// tokenAt returns the index of the token that contains or follows offset.
func tokenAt(tokens []token, offset int) int {
	lo, hi := 0, len(tokens)
	for lo < hi {
		mid := (lo + hi) / 2
		if tokens[mid].end <= offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func splitSentences(text string) []string {
	parts := sentencePattern.Split(text, -1)
	sentences := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}
