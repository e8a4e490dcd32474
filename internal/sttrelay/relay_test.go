package sttrelay

import (
	"testing"
	"time"

	ws "nhooyr.io/websocket"
)

func TestIsRecoverableClose(t *testing.T) {
	for _, code := range []ws.StatusCode{1006, 1011, 1012, 1013} {
		if !IsRecoverableClose(code) {
			t.Errorf("IsRecoverableClose(%d) = false, want true", code)
		}
	}
	for _, code := range []ws.StatusCode{1000, 1001, 1008} {
		if IsRecoverableClose(code) {
			t.Errorf("IsRecoverableClose(%d) = true, want false", code)
		}
	}
}

func TestAggressiveFinalizationPromotesStalePartial(t *testing.T) {
	sent := []ClientMessage{}

	// Exercise the pure decision logic directly rather than through the
	// network: a partial older than the finalization window must be
	// promoted exactly once.
	s := &relaySession{
		lastPartial:   "two adult",
		lastPartialAt: time.Now().Add(-3 * time.Second),
		hasPartial:    true,
	}
	capture := func(msg ClientMessage) { sent = append(sent, msg) }
	s.checkAggressiveFinalizationWith(capture)

	if len(sent) != 1 {
		t.Fatalf("expected exactly one promoted message, got %d", len(sent))
	}
	if !sent[0].IsFinal || sent[0].Text != "two adult" {
		t.Errorf("got %+v, want final promotion of %q", sent[0], "two adult")
	}
	if s.hasPartial {
		t.Error("hasPartial should be cleared after promotion")
	}
}

func TestAggressiveFinalizationDoesNotPromoteFreshPartial(t *testing.T) {
	sent := []ClientMessage{}
	s := &relaySession{
		lastPartial:   "two",
		lastPartialAt: time.Now(),
		hasPartial:    true,
	}
	s.checkAggressiveFinalizationWith(func(msg ClientMessage) { sent = append(sent, msg) })
	if len(sent) != 0 {
		t.Errorf("expected no promotion for a fresh partial, got %d messages", len(sent))
	}
	if !s.hasPartial {
		t.Error("hasPartial should remain set for a fresh partial")
	}
}
