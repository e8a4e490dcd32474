package sttclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	ws "nhooyr.io/websocket"
)

// wireMessage mirrors the relay server's ClientMessage shape.
type wireMessage struct {
	Type       string  `json:"type"`
	Text       string  `json:"transcript"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence"`
}

// RelayClient dials the server-side STT relay over a websocket and
// streams audio to it. It never holds a provider credential: the relay
// owns that. On a recoverable close code it retries the dial once after
// 1s per spec.md §4.2; any other close is terminal for the session.
type RelayClient struct {
	baseURL  string
	language string

	mu   sync.Mutex
	conn *ws.Conn
	ctx  context.Context

	onInterim      func(string, float64)
	onEndOfTurn    func(string, float64)
	onSpeechStarted func()
	onError        func(error)

	retried bool
}

// NewRelayClient builds a client that dials baseURL (e.g.
// "ws://localhost:8080/ws/stt") with the given language hint.
func NewRelayClient(baseURL, language string) *RelayClient {
	return &RelayClient{baseURL: baseURL, language: language}
}

func (c *RelayClient) OnInterim(cb func(string, float64))       { c.onInterim = cb }
func (c *RelayClient) OnEndOfTurn(cb func(string, float64))      { c.onEndOfTurn = cb }
func (c *RelayClient) OnSpeechStarted(cb func())                 { c.onSpeechStarted = cb }
func (c *RelayClient) OnError(cb func(error))                    { c.onError = cb }

func (c *RelayClient) Connect(ctx context.Context, sampleRate int) error {
	c.ctx = ctx
	return c.dial(ctx, sampleRate)
}

func (c *RelayClient) dial(ctx context.Context, sampleRate int) error {
	q := url.Values{}
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	if c.language != "" {
		q.Set("language", c.language)
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(dialCtx, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("sttclient: dial relay: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	go c.readLoop(ctx, conn, sampleRate)
	return nil
}

func (c *RelayClient) readLoop(ctx context.Context, conn *ws.Conn, sampleRate int) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := ws.CloseStatus(err)
			if status != -1 && isRecoverable(status) && !c.retried {
				c.retried = true
				time.Sleep(1 * time.Second)
				if dialErr := c.dial(ctx, sampleRate); dialErr == nil {
					return
				}
			}
			if c.onError != nil {
				c.onError(fmt.Errorf("sttclient: relay closed: %w", err))
			}
			return
		}
		if typ != ws.MessageText {
			continue
		}
		var m wireMessage
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		c.dispatch(m)
	}
}

func (c *RelayClient) dispatch(m wireMessage) {
	switch m.Type {
	case "Results":
		if m.IsFinal {
			if c.onEndOfTurn != nil {
				c.onEndOfTurn(m.Text, m.Confidence)
			}
		} else if c.onInterim != nil {
			c.onInterim(m.Text, m.Confidence)
		}
	case "SpeechStarted":
		if c.onSpeechStarted != nil {
			c.onSpeechStarted()
		}
	case "Error":
		if c.onError != nil {
			c.onError(fmt.Errorf("sttclient: provider error: %s", m.Text))
		}
	}
}

func (c *RelayClient) Send(pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	ctx := c.ctx
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("sttclient: not connected")
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return conn.Write(wctx, ws.MessageBinary, pcm)
}

func (c *RelayClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	// Conn.Close runs the library's close handshake, bounded by its own
	// timeout; the socket is not dropped without it.
	_ = conn.Close(ws.StatusNormalClosure, "")
	return nil
}

func isRecoverable(code ws.StatusCode) bool {
	switch code {
	case 1006, 1011, 1012, 1013:
		return true
	default:
		return false
	}
}
