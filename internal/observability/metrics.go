// Package observability centralizes the kiosk runtime's Prometheus
// metrics. Every component records into these instead of declaring its
// own promauto vars, so /metrics reflects the whole process.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Voice runtime
	VoiceSessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_sessions_started_total",
		Help: "Total voice sessions started",
	})
	VoiceSessionsAborted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_sessions_aborted_total",
		Help: "Total voice sessions aborted by the silent-turn ladder or watchdog",
	})
	VoiceSilentTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_silent_turns_total",
		Help: "Total silent turns observed across all sessions",
	})
	VoiceRejectedTranscripts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_voice_rejected_transcripts_total",
		Help: "Transcripts rejected by the validation gate, by reason",
	}, []string{"reason"})
	VoiceReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_voice_reconnects_total",
		Help: "Total STT reconnects across all sessions",
	})
	VoiceFailoverActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiosk_voice_failover_active",
		Help: "1 if the STT fallback provider is currently active",
	})

	// STT relay
	STTCircuitOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_stt_circuit_open_total",
		Help: "STT provider circuit breaker open events",
	})
	STTConnectMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kiosk_stt_connect_ms",
		Help:    "Time to establish provider connection (ms)",
		Buckets: prometheus.ExponentialBuckets(10, 1.8, 10),
	})
	STTAggressiveFinalizations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_stt_aggressive_finalizations_total",
		Help: "Partial transcripts promoted to final by the aggressive finalization timer",
	})

	// Intent mediator
	IntentRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_intent_rate_limited_total",
		Help: "Voice intents rejected by the rate limiter",
	})
	IntentDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_intent_deduped_total",
		Help: "Voice intents suppressed as duplicates within the dedup window",
	})
	IntentFastPathed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_intent_fast_pathed_total",
		Help: "Transcripts routed via the deterministic fast path, bypassing the LLM",
	})
	IntentLLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_intent_llm_calls_total",
		Help: "Calls made to an LLM brain, by brain",
	}, []string{"brain"})
	IntentGuardrailOverrides = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_intent_guardrail_overrides_total",
		Help: "LLM-proposed intents overridden by the active-slot guardrail",
	})

	// FSM
	FSMTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_fsm_transitions_total",
		Help: "FSM transitions applied, by from state and intent",
	}, []string{"from", "intent"})
	FSMNoOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_fsm_noops_total",
		Help: "FSM transitions that were no-ops (illegal state/intent pair)",
	})

	// Booking brain
	BookingPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_booking_persisted_total",
		Help: "Bookings persisted, by status (DRAFT, CONFIRMED)",
	}, []string{"status"})
	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiosk_booking_conflicts_total",
		Help: "BOOKING_DATE_CONFLICT errors raised on persistence",
	})

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiosk_http_requests_total",
		Help: "HTTP requests served, by route and status class",
	}, []string{"route", "status_class"})
)
