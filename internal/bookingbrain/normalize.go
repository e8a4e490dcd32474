package bookingbrain

import (
	"regexp"
	"strconv"
	"strings"

	"kiosk/runtime/internal/normalizer"
)

// numberWords maps spoken number words to digits for slot-specific hints
// like "one adult" or "two kids", per spec.md §4.9.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var digitPattern = regexp.MustCompile(`\d+`)

// NormalizeNumber extracts an integer count from a transcript carrying a
// number word or digit, e.g. "one adult" -> 1, "2 kids, please" -> 2.
func NormalizeNumber(transcript string) (int, bool) {
	norm := normalizer.Normalize(transcript)
	if m := digitPattern.FindString(norm); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n, true
		}
	}
	for word, n := range numberWords {
		if containsWord(norm, word) {
			return n, true
		}
	}
	return 0, false
}

// isoDatePattern matches YYYY-MM-DD, the only date shape spec.md §4.9
// accepts for a date slot.
var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate accepts an ISO YYYY-MM-DD date embedded anywhere in the
// transcript.
func NormalizeDate(transcript string) (string, bool) {
	norm := normalizer.Normalize(transcript)
	for _, tok := range strings.Fields(norm) {
		tok = strings.Trim(tok, ".,!?;:")
		if isoDatePattern.MatchString(tok) {
			return tok, true
		}
	}
	return "", false
}

// NormalizeString trims the transcript for a free-text slot (e.g. guest
// name), preserving original casing.
func NormalizeString(transcript string) (string, bool) {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// NormalizeSlotValue dispatches on expectedType per spec.md §4.9.
func NormalizeSlotValue(expectedType, transcript string) (any, bool) {
	switch expectedType {
	case "number":
		return NormalizeNumber(transcript)
	case "date":
		return NormalizeDate(transcript)
	case "string":
		return NormalizeString(transcript)
	default:
		return nil, false
	}
}

func containsWord(s, word string) bool {
	for _, tok := range strings.Fields(s) {
		if tok == word {
			return true
		}
	}
	return false
}
