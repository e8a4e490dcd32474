package bookingbrain

import (
	"encoding/json"
	"fmt"
)

// rawLLMResponse is the shape the system prompt asks the LLM to emit.
type rawLLMResponse struct {
	Speech         string       `json:"speech"`
	Intent         string       `json:"intent"`
	Confidence     float64      `json:"confidence"`
	ExtractedSlots BookingSlots `json:"extractedSlots"`
	IsComplete     bool         `json:"isComplete"`
}

func parseLLMResponse(obj string) (rawLLMResponse, error) {
	var raw rawLLMResponse
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return rawLLMResponse{}, fmt.Errorf("bookingbrain: invalid json: %w", err)
	}
	if raw.Intent == "" {
		return rawLLMResponse{}, fmt.Errorf("bookingbrain: missing intent field")
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return rawLLMResponse{}, fmt.Errorf("bookingbrain: confidence %v out of range [0,1]", raw.Confidence)
	}
	return raw, nil
}
