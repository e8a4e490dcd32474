// Command kiosk-runtime is the device-side process: it owns the
// microphone/speaker pair, the STT failover pair (relay-first, browser
// fallback), and the duplex voice coordinator (internal/voiceruntime),
// driving a single local tenant's intent mediator exactly as a kiosk
// booth would.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"kiosk/runtime/internal/audio"
	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/config"
	"kiosk/runtime/internal/floor"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/llmclient"
	"kiosk/runtime/internal/ratelimit"
	"kiosk/runtime/internal/session"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/sttclient"
	"kiosk/runtime/internal/tenant"
	"kiosk/runtime/internal/tts"
	"kiosk/runtime/internal/voiceruntime"
)

// micPumpInterval is how often the simulated capture emits a silent frame
// when no physical microphone is attached, keeping the capture graph alive
// without synthesizing speech on its own.
const micPumpInterval = 200 * time.Millisecond

func main() {
	cfg := config.Load()
	ten := localTenant()

	llm := llmclient.New(cfg.LLM.BaseURL, cfg.LLM.GroqAPIKey, cfg.LLM.Model)
	sessions := session.NewStore()
	store := storage.NewMemoryStore()

	chat := chatbrain.New(llm, sessions, ten)
	booking := bookingbrain.New(llm, sessions, store, ten, cfg.Idempotency.Secret)
	mediator := intent.New(chat, booking, store, ratelimit.NewMemoryLimiter(), ten, nil)

	capture := audio.NewSimulatedCapture(audio.Options{SampleRate: 16000}, false)

	relay := sttclient.NewRelayClient(cfg.Relay.URL, cfg.STT.Language)
	fallback := sttclient.NewFallbackClient(2 * time.Second)
	stt := sttclient.NewFailoverClient(relay, fallback)

	ttsCtl := tts.NewController(newLoggingSynth(), cfg.Client.TTSLangPriority)

	rt := voiceruntime.New(capture, stt, ttsCtl, floor.New(), mediator)
	rt.Subscribe(func(evt voiceruntime.Event) {
		log.Printf("[kiosk-runtime] event=%s session=%s text=%q err=%v", evt.Type, evt.SessionID, evt.Text, evt.Err)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt.WatchInactivity(ctx)
	pumpSilentAudio(ctx, capture)

	const boothSessionID = "kiosk-booth-1"
	if err := rt.StartListening(ctx, boothSessionID); err != nil {
		log.Fatalf("voice session failed to start: %v", err)
	}
	log.Printf("kiosk-runtime listening: tenant=%s relay=%s", ten.Slug, cfg.Relay.URL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	rt.StopListening(boothSessionID)
	cancel()
	log.Printf("shutdown complete")
}

// localTenant builds the single hotel this booth serves, mirroring
// kiosk-server's env-driven tenant construction: each device is dedicated
// to one hotel, so there is no tenant lookup here.
func localTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:           uuid.New(),
		Slug:         envOr("TENANT_SLUG", "grand-hotel"),
		Name:         envOr("TENANT_NAME", "Grand Hotel"),
		Timezone:     envOr("TENANT_TIMEZONE", "America/New_York"),
		CheckInTime:  envOr("TENANT_CHECKIN_TIME", "15:00"),
		CheckOutTime: envOr("TENANT_CHECKOUT_TIME", "11:00"),
		Amenities:    []string{"pool", "gym", "free breakfast"},
	}
}

// pumpSilentAudio drives the simulated capture with silent frames on a
// fixed interval so the voice runtime's capture graph behaves like a live
// mic feed even on hardware with no physical microphone attached.
func pumpSilentAudio(ctx context.Context, capture *audio.SimulatedCapture) {
	ticker := time.NewTicker(micPumpInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				capture.Emit(audio.Frame{})
			}
		}
	}()
}

// loggingSynth stands in for a kiosk's hardware speech engine: no such
// concrete TTS backend exists in this module, so it logs what would have
// been spoken and blocks for a duration proportional to the text length,
// modeling a real synthesizer's Utter contract closely enough to exercise
// the controller's barge-in and hard-stop paths.
type loggingSynth struct {
	voice tts.Voice
}

func newLoggingSynth() *loggingSynth {
	return &loggingSynth{voice: tts.Voice{Name: "kiosk-default", Locale: "en-US", Quality: "standard"}}
}

func (s *loggingSynth) ListVoices() []tts.Voice {
	return []tts.Voice{s.voice}
}

func (s *loggingSynth) Utter(ctx context.Context, text string, voice tts.Voice) error {
	log.Printf("[tts] speaking (%s): %q", voice.Name, text)
	perWord := 200 * time.Millisecond
	wordCount := len(text) / 5
	if wordCount < 1 {
		wordCount = 1
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(wordCount) * perWord):
		return nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
