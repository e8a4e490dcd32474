// Package config loads the kiosk runtime's configuration from the
// environment via viper, following the teacher's SetDefault/BindEnv
// pattern.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full process configuration: server ports, upstream STT
// provider tuning, LLM credential, idempotency signing secret, database
// DSN, Redis address, and the client-facing defaults shipped to the
// kiosk frontend.
type Config struct {
	Server struct {
		Port     string
		HTTPPort string
		LogLevel string
	}
	STT struct {
		Model           string
		Language        string
		EndpointingMs   int
		UtteranceEndMs  int
		WSURL           string
	}
	LLM struct {
		GroqAPIKey string
		BaseURL    string
		Model      string
	}
	Idempotency struct {
		Secret string
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Relay struct {
		// URL is the kiosk-runtime's dial target for the server-side STT
		// relay (internal/sttrelay), e.g. "ws://localhost:8080/ws/stt".
		URL string
	}
	Client struct {
		STTProvider             string
		EnableWebspeechFallback bool
		TTSLangPriority         []string
		MinTranscriptConfidence float64
		NoSpeechTimeoutMs       int
	}
}

// Load reads configuration from the environment, applying the same
// SetDefault-then-BindEnv pattern as the teacher's own config loader.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("stt.model", "nova-2")
	v.SetDefault("stt.language", "en-US")
	v.SetDefault("stt.endpointing_ms", 1000)
	v.SetDefault("stt.utterance_end_ms", 1500)

	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.1-8b-instant")

	v.SetDefault("client.stt_provider", "deepgram")
	v.SetDefault("client.enable_webspeech_fallback", true)
	v.SetDefault("client.tts_lang_priority", []string{"en-US", "hi-IN"})
	v.SetDefault("client.min_transcript_confidence", 0.2)
	v.SetDefault("client.no_speech_timeout_ms", 8000)

	v.SetDefault("relay.url", "ws://localhost:8080/ws/stt")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.http_port", "HTTP_PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("stt.model", "DEEPGRAM_MODEL")
	v.BindEnv("stt.language", "DEEPGRAM_LANGUAGE")
	v.BindEnv("stt.endpointing_ms", "DEEPGRAM_ENDPOINTING_MS")
	v.BindEnv("stt.utterance_end_ms", "DEEPGRAM_UTTERANCE_END_MS")
	v.BindEnv("stt.ws_url", "DEEPGRAM_WS_URL")

	v.BindEnv("llm.groq_api_key", "GROQ_API_KEY")
	v.BindEnv("llm.base_url", "GROQ_BASE_URL")
	v.BindEnv("llm.model", "GROQ_MODEL")

	v.BindEnv("idempotency.secret", "IDEMPOTENCY_SECRET")

	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")

	v.BindEnv("relay.url", "RELAY_URL")

	v.BindEnv("client.stt_provider", "VITE_STT_PROVIDER")
	v.BindEnv("client.enable_webspeech_fallback", "VITE_ENABLE_WEBSPEECH_FALLBACK")
	v.BindEnv("client.tts_lang_priority", "VITE_TTS_LANG_PRIORITY")
	v.BindEnv("client.min_transcript_confidence", "VITE_MIN_TRANSCRIPT_CONFIDENCE")
	v.BindEnv("client.no_speech_timeout_ms", "VITE_NO_SPEECH_TIMEOUT_MS")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.HTTPPort = toString(v.Get("server.http_port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.STT.Model = v.GetString("stt.model")
	c.STT.Language = v.GetString("stt.language")
	c.STT.EndpointingMs = v.GetInt("stt.endpointing_ms")
	c.STT.UtteranceEndMs = v.GetInt("stt.utterance_end_ms")
	c.STT.WSURL = v.GetString("stt.ws_url")

	c.LLM.GroqAPIKey = v.GetString("llm.groq_api_key")
	c.LLM.BaseURL = v.GetString("llm.base_url")
	c.LLM.Model = v.GetString("llm.model")

	c.Idempotency.Secret = v.GetString("idempotency.secret")

	c.Database.DSN = v.GetString("database.dsn")
	c.Redis.Addr = v.GetString("redis.addr")
	c.Relay.URL = v.GetString("relay.url")

	c.Client.STTProvider = v.GetString("client.stt_provider")
	c.Client.EnableWebspeechFallback = v.GetBool("client.enable_webspeech_fallback")
	c.Client.TTSLangPriority = v.GetStringSlice("client.tts_lang_priority")
	c.Client.MinTranscriptConfidence = v.GetFloat64("client.min_transcript_confidence")
	c.Client.NoSpeechTimeoutMs = v.GetInt("client.no_speech_timeout_ms")

	if c.Idempotency.Secret == "" {
		log.Printf("config: IDEMPOTENCY_SECRET not set, using an ephemeral per-process default")
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("config: generate idempotency secret: %v", err)
		}
		c.Idempotency.Secret = hex.EncodeToString(buf)
	}

	log.Printf("config loaded: port=%s stt_model=%s llm_model=%s", c.Server.Port, c.STT.Model, c.LLM.Model)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
