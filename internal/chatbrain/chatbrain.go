// Package chatbrain implements the General Chat Brain: a tenant-scoped
// HTTP endpoint that turns a voice transcript into a fuzzy speech/intent
// suggestion for the intent mediator to map onto the strict FSM intent
// enum, per spec.md §4.8.
package chatbrain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kiosk/runtime/internal/llmclient"
	"kiosk/runtime/internal/session"
	"kiosk/runtime/internal/tenant"
)

// Request is the chat brain's input per spec.md §4.8.
type Request struct {
	Transcript   string
	CurrentState string
	SessionID    string
}

// Response is always returned, even on internal failure, so the mediator
// never has to special-case a non-JSON reply. Intent is deliberately a raw
// string: the LLM's fuzzy output, not yet mapped to the strict fsm.Intent
// enum (that mapping is the intent mediator's job, per spec.md §4.6).
type Response struct {
	Speech     string  `json:"speech"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

const genericErrorSpeech = "I'm having trouble understanding. Please use the touch screen."

// historyWindow is the number of recent turns attached to the LLM prompt,
// per spec.md §4.8 ("last <=6 history messages").
const historyWindow = 6

// idleLikeStates are states whose chat session is wiped before handling
// the next request, per spec.md §4.8/§8 privacy wipe rule.
var idleLikeStates = map[string]bool{
	"IDLE":    true,
	"WELCOME": true,
}

// Brain answers general (non-booking) chat turns.
type Brain struct {
	llm      *llmclient.Client
	sessions *session.Store
	tenant   *tenant.Tenant
	now      func() time.Time
}

// New constructs a Brain bound to one tenant's hotel context.
func New(llm *llmclient.Client, sessions *session.Store, t *tenant.Tenant) *Brain {
	return &Brain{llm: llm, sessions: sessions, tenant: t, now: time.Now}
}

// Handle implements the full §4.8 algorithm.
func (b *Brain) Handle(ctx context.Context, req Request) Response {
	if idleLikeStates[req.CurrentState] {
		b.sessions.Wipe(req.SessionID)
	}

	if strings.TrimSpace(req.Transcript) == "" {
		return Response{Intent: "IDLE", Confidence: 1}
	}

	history := b.sessions.RecentHistory(req.SessionID, historyWindow)
	messages := []llmclient.Message{{Role: "system", Content: b.systemPrompt(req.CurrentState)}}
	for _, turn := range history {
		role := "user"
		if turn.Role == session.RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, llmclient.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llmclient.Message{Role: "user", Content: req.Transcript})

	reply, err := b.llm.Complete(ctx, messages)
	if err != nil {
		return genericError()
	}

	obj, ok := llmclient.ExtractFirstJSONObject(reply)
	if !ok {
		return genericError()
	}

	resp, err := parseResponse(obj)
	if err != nil {
		return genericError()
	}

	b.sessions.AppendTurn(req.SessionID, session.RoleUser, req.Transcript)
	b.sessions.AppendTurn(req.SessionID, session.RoleAssistant, resp.Speech)

	return resp
}

func genericError() Response {
	return Response{Speech: genericErrorSpeech, Intent: "UNKNOWN", Confidence: 0}
}

// systemPrompt builds the hotel-context system message: name, local
// time-of-day greeting (timezone-adjusted), current kiosk state, amenities,
// and check-in/out policy, per spec.md §4.8.
func (b *Brain) systemPrompt(currentState string) string {
	greeting := "Hello"
	loc, err := time.LoadLocation(b.tenant.Timezone)
	if err == nil {
		hour := b.now().In(loc).Hour()
		switch {
		case hour < 12:
			greeting = "Good morning"
		case hour < 18:
			greeting = "Good afternoon"
		default:
			greeting = "Good evening"
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the voice concierge for %s. %s, guest.\n", b.tenant.Name, greeting)
	fmt.Fprintf(&sb, "Current kiosk screen: %s.\n", currentState)
	if len(b.tenant.Amenities) > 0 {
		fmt.Fprintf(&sb, "Amenities: %s.\n", strings.Join(b.tenant.Amenities, ", "))
	}
	if b.tenant.CheckInTime != "" || b.tenant.CheckOutTime != "" {
		fmt.Fprintf(&sb, "Check-in is at %s, check-out is at %s.\n", b.tenant.CheckInTime, b.tenant.CheckOutTime)
	}
	sb.WriteString("Respond with exactly one JSON object: {\"speech\": string, \"intent\": string, \"confidence\": number between 0 and 1}. No other text.")
	return sb.String()
}
