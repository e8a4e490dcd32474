// Package sttrelay holds the server-side half of the duplex voice
// pipeline's STT boundary: a persistent websocket connection to the
// upstream speech-to-text provider, and a relay server that lets browser
// clients stream audio without ever holding the provider credential.
package sttrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
)

// EventType identifies the kind of event a ProviderConn emits.
type EventType string

const (
	EventInterim      EventType = "interim"
	EventFinal        EventType = "final"
	EventSpeechStart  EventType = "speech_started"
	EventUtteranceEnd EventType = "utterance_end"
	EventMetadata     EventType = "metadata"
	EventError        EventType = "error"
)

// Event is a normalized message emitted by ProviderConn regardless of the
// wire shape the upstream provider uses.
type Event struct {
	Type       EventType
	Text       string
	Confidence float64
	Raw        map[string]any
}

// ProviderConfig configures the upstream STT provider connection. Field
// names mirror the Deepgram-shaped query parameters this relay targets,
// per spec.md §6 external interfaces.
type ProviderConfig struct {
	Model         string
	Language      string
	EndpointingMs int
	UtterEndMs    int
	BaseURL       string
	SampleRate    int
}

// ProviderConn maintains a single live websocket connection to the
// upstream STT provider for one relay session: binary PCM frames out,
// normalized Events in. It reconnects with exponential backoff and a
// failure-count circuit breaker; it never terminates on its own unless
// its context is cancelled.
type ProviderConn struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiKey string
	url    string

	sendQ  chan []byte
	Events chan Event

	fails   []time.Time
	circuit time.Time

	lastInterimText string
	lastFinalText   string
}

// NewProviderConn builds a connection that will dial url with apiKey as
// bearer credential once Start is called.
func NewProviderConn(parent context.Context, cfg ProviderConfig, apiKey string) *ProviderConn {
	ctx, cancel := context.WithCancel(parent)
	q := url.Values{}
	q.Set("model", orDefault(cfg.Model, "nova-2"))
	q.Set("language", orDefault(cfg.Language, "en-US"))
	q.Set("smart_format", "true")
	q.Set("endpointing", fmt.Sprintf("%d", nzd(cfg.EndpointingMs, 1000)))
	q.Set("interim_results", "true")
	q.Set("utterance_end_ms", fmt.Sprintf("%d", nzd(cfg.UtterEndMs, 1500)))
	q.Set("vad_events", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", fmt.Sprintf("%d", nzd(cfg.SampleRate, 16000)))
	q.Set("channels", "1")
	base := cfg.BaseURL
	if base == "" {
		base = "wss://api.deepgram.com/v1/listen"
	}
	return &ProviderConn{
		ctx:    ctx,
		cancel: cancel,
		apiKey: apiKey,
		url:    base + "?" + q.Encode(),
		sendQ:  make(chan []byte, 8),
		Events: make(chan Event, 32),
	}
}

// Start launches the connect/pump/reconnect loop in the background.
func (p *ProviderConn) Start() { go p.run() }

// Close terminates the connection and its background loop.
func (p *ProviderConn) Close() { p.cancel() }

// Send enqueues a PCM frame for transmission. It drops the frame and
// reports false if the outbound queue is full (slow upstream).
func (p *ProviderConn) Send(pcm []byte) bool {
	select {
	case p.sendQ <- pcm:
		return true
	default:
		return false
	}
}

func (p *ProviderConn) run() {
	defer close(p.Events)
	for {
		if err := p.connectAndPump(); err != nil {
			p.addFailure()
			p.emit(Event{Type: EventError, Text: err.Error()})
		} else {
			p.resetFailures()
		}
		if p.ctx.Err() != nil {
			return
		}
		time.Sleep(p.nextBackoff())
	}
}

func (p *ProviderConn) connectAndPump() error {
	if time.Now().Before(p.circuit) {
		time.Sleep(500 * time.Millisecond)
		return fmt.Errorf("sttrelay: circuit open")
	}

	hdr := make(http.Header)
	if p.apiKey != "" {
		hdr.Set("Authorization", "Token "+p.apiKey)
	}
	dctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(dctx, p.url, &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return err
	}
	defer hardClose(ws)

	sendDone := make(chan struct{})
	go func() {
		defer close(sendDone)
		for {
			select {
			case <-p.ctx.Done():
				return
			case b := <-p.sendQ:
				if b == nil {
					continue
				}
				wctx, cancel := context.WithTimeout(p.ctx, 5*time.Second)
				err := ws.Write(wctx, websocket.MessageBinary, b)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		if p.ctx.Err() != nil {
			return nil
		}
		_, data, err := ws.Read(p.ctx)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		p.handleMessage(data)
	}
}

func (p *ProviderConn) handleMessage(data []byte) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return
	}
	typ := toString(m["type"])

	switch {
	case strings.EqualFold(typ, "Error") || m["error"] != nil:
		msg := toString(m["error"])
		if msg == "" {
			msg = toString(m["message"])
		}
		if msg == "" {
			msg = "provider_error"
		}
		p.emit(Event{Type: EventError, Text: msg, Raw: m})

	case strings.EqualFold(typ, "Metadata"):
		p.emit(Event{Type: EventMetadata, Raw: m})

	case strings.EqualFold(typ, "SpeechStarted"):
		p.lastInterimText = ""
		p.lastFinalText = ""
		p.emit(Event{Type: EventSpeechStart, Raw: m})

	case strings.EqualFold(typ, "Results") || m["channel"] != nil:
		text, confidence := extractAlternative(m)
		isFinal := toBool(m["is_final"]) || toBool(m["speech_final"])
		if text != "" {
			p.lastInterimText = text
		}
		if isFinal {
			if text != "" {
				p.lastFinalText = text
				p.emit(Event{Type: EventFinal, Text: text, Confidence: confidence, Raw: m})
			}
		} else if text != "" {
			p.emit(Event{Type: EventInterim, Text: text, Confidence: confidence, Raw: m})
		}

	case strings.EqualFold(typ, "UtteranceEnd"):
		fallback := p.lastFinalText
		if fallback == "" {
			fallback = p.lastInterimText
		}
		if fallback != "" {
			p.emit(Event{Type: EventUtteranceEnd, Text: fallback, Raw: m})
		}
		p.lastInterimText = ""
		p.lastFinalText = ""
	}
}

func extractAlternative(m map[string]any) (text string, confidence float64) {
	channel, _ := m["channel"].(map[string]any)
	if channel == nil {
		return "", 0
	}
	alts, _ := channel["alternatives"].([]any)
	if len(alts) == 0 {
		return "", 0
	}
	a0, ok := alts[0].(map[string]any)
	if !ok {
		return "", 0
	}
	text = strings.TrimSpace(toString(a0["transcript"]))
	if c, ok := a0["confidence"].(float64); ok {
		confidence = c
	}
	return text, confidence
}

func (p *ProviderConn) emit(e Event) {
	select {
	case p.Events <- e:
	default:
		log.Printf("sttrelay: dropping event, slow consumer")
	}
}

// addFailure records a connection failure and opens the circuit breaker
// for 30s once 3 failures land within a trailing 60s window.
func (p *ProviderConn) addFailure() {
	p.fails = append(p.fails, time.Now())
	cutoff := time.Now().Add(-60 * time.Second)
	j := 0
	for _, t := range p.fails {
		if t.After(cutoff) {
			p.fails[j] = t
			j++
		}
	}
	p.fails = p.fails[:j]
	if len(p.fails) >= 3 {
		p.circuit = time.Now().Add(30 * time.Second)
	}
}

func (p *ProviderConn) resetFailures() { p.fails = nil }

func (p *ProviderConn) nextBackoff() time.Duration {
	n := len(p.fails)
	if n <= 0 {
		return time.Second
	}
	if n > 6 {
		n = 6
	}
	base := time.Duration(1<<uint(n-1)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	return base
}

// hardClose is the "zombie killer" teardown: it closes the socket with
// StatusGoingAway through Conn.Close, which still runs the library's close
// handshake (it writes a close frame and waits, with a timeout, for the
// peer's). It does not detach listeners or drop the socket without the
// handshake.
func hardClose(ws *websocket.Conn) {
	_ = ws.Close(websocket.StatusGoingAway, "")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nzd(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
