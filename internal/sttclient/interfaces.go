// Package sttclient implements the kiosk-side half of the STT boundary:
// a relay client that dials the server-side relay, a browser-native
// fallback client with the same surface, and a failover wrapper that
// switches between them.
package sttclient

import "context"

// Client is the common surface both the relay client (RC) and the
// fallback client (FC) implement, per spec.md §4.2/§4.3.
type Client interface {
	Connect(ctx context.Context, sampleRate int) error
	Send(pcm []byte) error
	Close() error
	OnInterim(cb func(text string, confidence float64))
	OnEndOfTurn(cb func(text string, confidence float64))
	OnSpeechStarted(cb func())
	OnError(cb func(err error))
}
