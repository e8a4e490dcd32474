package sttclient

import (
	"context"
	"errors"
	"testing"
)

type stubClient struct {
	connectErr error
	connected  bool
	closed     bool
}

func (s *stubClient) Connect(ctx context.Context, sampleRate int) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}
func (s *stubClient) Send(pcm []byte) error             { return nil }
func (s *stubClient) Close() error                      { s.closed = true; return nil }
func (s *stubClient) OnInterim(cb func(string, float64)) {}
func (s *stubClient) OnEndOfTurn(cb func(string, float64)) {}
func (s *stubClient) OnSpeechStarted(cb func())          {}
func (s *stubClient) OnError(cb func(error))             {}

func TestFailoverClientUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubClient{}
	fallback := &stubClient{}
	f := NewFailoverClient(primary, fallback)

	if err := f.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !primary.connected {
		t.Error("expected primary to connect")
	}
	if f.IsFallbackActive() {
		t.Error("fallback should not be active when primary succeeds")
	}
}

func TestFailoverClientSwitchesToFallbackAndSticks(t *testing.T) {
	primary := &stubClient{connectErr: errors.New("primary down")}
	fallback := &stubClient{}
	f := NewFailoverClient(primary, fallback)

	if err := f.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !fallback.connected {
		t.Error("expected fallback to connect after primary failure")
	}
	if !f.IsFallbackActive() {
		t.Error("expected fallback to become active")
	}

	// A second connect attempt should still prefer fallback.
	fallback.connected = false
	if err := f.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !fallback.connected {
		t.Error("expected fallback to stay active on subsequent connect")
	}
}

func TestFailoverClientRetriesPrimaryAfterBothFail(t *testing.T) {
	primary := &stubClient{connectErr: errors.New("primary down")}
	fallback := &stubClient{connectErr: errors.New("fallback down")}
	f := NewFailoverClient(primary, fallback)

	if err := f.Connect(context.Background(), 16000); err == nil {
		t.Fatal("expected error when both primary and fallback fail")
	}

	// Now let primary recover; since fallback never activated, connect
	// should still try primary first.
	primary.connectErr = nil
	if err := f.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if f.IsFallbackActive() {
		t.Error("fallback should not be active")
	}
}
