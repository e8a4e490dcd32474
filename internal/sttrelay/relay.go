package sttrelay

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	ws "nhooyr.io/websocket"
)

// aggressiveFinalizationWindow is how long a partial may persist without a
// final or a fresher partial before the relay promotes it to final itself,
// per spec.md §4.2.
const aggressiveFinalizationWindow = 2000 * time.Millisecond

// recoverableCloseCodes are provider close codes worth one reconnect
// attempt; any other close is terminal for the session.
var recoverableCloseCodes = map[ws.StatusCode]bool{
	1006: true,
	1011: true,
	1012: true,
	1013: true,
}

// ClientMessage is the normalized JSON shape the relay sends to the
// browser client, mirroring the upstream provider's own message shapes
// per spec.md §6 (type=Results, SpeechStarted, UtteranceEnd, Metadata).
type ClientMessage struct {
	Type    string  `json:"type"`
	Text    string  `json:"transcript,omitempty"`
	IsFinal bool    `json:"is_final,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Dialer constructs a ProviderConn for a new relay session. Production
// wiring passes a closure that fills in the provider API key from config;
// tests pass a closure backed by a fake upstream.
type Dialer func(ctx context.Context, sampleRate int, language string) *ProviderConn

// Server accepts client websocket connections and relays them to the
// upstream STT provider. It never exposes the provider credential to the
// client: the credential lives only in Dialer's closure.
type Server struct {
	dial Dialer
}

func NewServer(dial Dialer) *Server {
	return &Server{dial: dial}
}

// ServeHTTP upgrades the request to a websocket and relays client PCM
// frames to the provider, streaming normalized events back as JSON text
// frames.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sampleRate := 16000
	if v := r.URL.Query().Get("sample_rate"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sampleRate = n
		}
	}
	language := r.URL.Query().Get("language")

	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("sttrelay: accept error: %v", err)
		return
	}

	ctx := r.Context()
	provider := s.dial(ctx, sampleRate, language)
	provider.Start()
	defer provider.Close()

	session := newRelaySession(ctx, conn, provider)
	session.run()
}

// relaySession pumps one client connection against one provider
// connection, applying aggressive finalization and the zombie-killer
// teardown on exit.
type relaySession struct {
	ctx      context.Context
	conn     *ws.Conn
	provider *ProviderConn

	lastPartial   string
	lastPartialAt time.Time
	hasPartial    bool
}

func newRelaySession(ctx context.Context, conn *ws.Conn, provider *ProviderConn) *relaySession {
	return &relaySession{ctx: ctx, conn: conn, provider: provider}
}

func (s *relaySession) run() {
	defer hardClose(s.conn)

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		s.pumpClientFrames()
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-readDone:
			return
		case evt, ok := <-s.provider.Events:
			if !ok {
				return
			}
			s.handleProviderEvent(evt)
		case <-ticker.C:
			s.checkAggressiveFinalization()
		}
	}
}

func (s *relaySession) pumpClientFrames() {
	for {
		typ, data, err := s.conn.Read(s.ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageBinary {
			continue
		}
		s.provider.Send(data)
	}
}

func (s *relaySession) handleProviderEvent(evt Event) {
	switch evt.Type {
	case EventInterim:
		s.lastPartial = evt.Text
		s.lastPartialAt = time.Now()
		s.hasPartial = true
		s.send(ClientMessage{Type: "Results", Text: evt.Text, IsFinal: false, Confidence: evt.Confidence})
	case EventFinal, EventUtteranceEnd:
		s.hasPartial = false
		s.send(ClientMessage{Type: "Results", Text: evt.Text, IsFinal: true, Confidence: evt.Confidence})
	case EventSpeechStart:
		s.hasPartial = false
		s.send(ClientMessage{Type: "SpeechStarted"})
	case EventMetadata:
		s.send(ClientMessage{Type: "Metadata"})
	case EventError:
		s.send(ClientMessage{Type: "Error", Text: evt.Text})
	}
}

// checkAggressiveFinalization promotes a stale partial to final if it has
// sat unconfirmed for longer than aggressiveFinalizationWindow, per
// spec.md §4.2.
func (s *relaySession) checkAggressiveFinalization() {
	s.checkAggressiveFinalizationWith(s.send)
}

// checkAggressiveFinalizationWith is the pure decision core of aggressive
// finalization, taking the outbound sink as a parameter so it can be
// exercised without a live websocket.
func (s *relaySession) checkAggressiveFinalizationWith(sink func(ClientMessage)) {
	if !s.hasPartial {
		return
	}
	if time.Since(s.lastPartialAt) < aggressiveFinalizationWindow {
		return
	}
	text := s.lastPartial
	s.hasPartial = false
	sink(ClientMessage{Type: "Results", Text: text, IsFinal: true})
}

func (s *relaySession) send(msg ClientMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	_ = s.conn.Write(wctx, ws.MessageText, b)
}

// IsRecoverableClose reports whether a websocket close code is worth one
// reconnect attempt after 1s, per spec.md §4.2 and §7.
func IsRecoverableClose(code ws.StatusCode) bool {
	return recoverableCloseCodes[code]
}
