package chatbrain

import (
	"encoding/json"
	"fmt"
)

// rawResponse mirrors Response but lets confidence arrive as any JSON
// number shape before range validation.
type rawResponse struct {
	Speech     string  `json:"speech"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// parseResponse validates the LLM's JSON object against the
// {speech, intent, confidence} schema required by spec.md §4.8.
func parseResponse(obj string) (Response, error) {
	var raw rawResponse
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return Response{}, fmt.Errorf("chatbrain: invalid json: %w", err)
	}
	if raw.Intent == "" {
		return Response{}, fmt.Errorf("chatbrain: missing intent field")
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return Response{}, fmt.Errorf("chatbrain: confidence %v out of range [0,1]", raw.Confidence)
	}
	return Response{Speech: raw.Speech, Intent: raw.Intent, Confidence: raw.Confidence}, nil
}
