// Package normalizer applies deterministic text hygiene to raw transcripts
// before they reach the intent mediator or either brain. It never calls an
// LLM and never depends on external state: the same input always yields
// the same output.
package normalizer

import (
	"strings"
	"unicode"
)

// fillerTokens are transcripts that are nothing but a hesitation sound.
// A transcript that normalizes to exactly one of these is not a real turn.
var fillerTokens = map[string]bool{
	"uh":  true,
	"um":  true,
	"hmm": true,
	"huh": true,
	"ah":  true,
	"oh":  true,
}

// commandKeywords are terms that indicate a deliberate command even when
// STT confidence is low; the voice runtime's validation gate lets these
// through below the normal confidence floor.
var commandKeywords = []string{
	"book", "booking", "room", "check-in", "checkin", "pay", "payment",
	"confirm", "cancel", "back", "help", "yes", "no", "continue",
	"proceed", "modify", "change", "amenit", "price",
}

// Normalize lowercases, collapses internal whitespace, and trims leading
// and trailing punctuation/whitespace. It is safe for mixed Hindi/English
// transcripts: lowercasing uses Unicode case mapping, which leaves caseless
// scripts such as Devanagari unchanged.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	text = collapseWhitespace(text)
	text = strings.ToLower(text)
	text = strings.Trim(text, ".,!?;:\"' ")
	return text
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// IsFiller reports whether a normalized transcript is exactly a filler
// token and nothing else.
func IsFiller(normalized string) bool {
	return fillerTokens[normalized]
}

// HasCommandKeyword reports whether a normalized transcript contains any
// of the fixed command keywords that bypass the minimum-confidence gate.
func HasCommandKeyword(normalized string) bool {
	for _, kw := range commandKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
