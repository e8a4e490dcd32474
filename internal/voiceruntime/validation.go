package voiceruntime

import (
	"kiosk/runtime/internal/normalizer"
)

// validateTranscript implements the validation gate from spec.md §4.5:
// normalize, reject too-short, reject filler-only, reject low-confidence
// unless a command keyword is present. ok is false when the transcript
// must be rejected (and counted as a silent turn by the caller).
func validateTranscript(raw string, confidence float64) (normalized string, ok bool) {
	normalized = normalizer.Normalize(raw)
	if len(normalized) < MinChars {
		return normalized, false
	}
	if normalizer.IsFiller(normalized) {
		return normalized, false
	}
	if confidence < MinConfidence && !normalizer.HasCommandKeyword(normalized) {
		return normalized, false
	}
	return normalized, true
}
