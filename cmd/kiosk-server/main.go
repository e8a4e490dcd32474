// Command kiosk-server is the backend process: the tenant-scoped HTTP
// API (internal/httpapi) and the STT relay websocket endpoint
// (internal/sttrelay), behind a single bind address.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/chatbrain"
	"kiosk/runtime/internal/config"
	"kiosk/runtime/internal/health"
	"kiosk/runtime/internal/httpapi"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/llmclient"
	"kiosk/runtime/internal/observability"
	"kiosk/runtime/internal/ratelimit"
	"kiosk/runtime/internal/session"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/sttrelay"
	"kiosk/runtime/internal/tenant"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()

	ten := defaultTenant()
	registry := tenant.NewRegistry([]*tenant.Tenant{ten})

	store, closeStore := openStore(cfg, ten)
	defer closeStore()

	llm := llmclient.New(cfg.LLM.BaseURL, cfg.LLM.GroqAPIKey, cfg.LLM.Model)
	sessions := session.NewStore()
	limiter := ratelimit.NewMemoryLimiter()

	chat := chatbrain.New(llm, sessions, ten)
	booking := bookingbrain.New(llm, sessions, store, ten, cfg.Idempotency.Secret)
	mediator := intent.New(chat, booking, store, limiter, ten, nil)

	api := httpapi.New(registry,
		map[string]*intent.Mediator{ten.Slug: mediator},
		map[string]*bookingbrain.Brain{ten.Slug: booking},
		store, ten.Slug)

	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.Handle("/ws/stt", sttrelay.NewServer(newProviderDialer(cfg)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := health.CheckAll(r.Context(), cfg)
		w.Header().Set("Content-Type", "application/json")
		if !status.OK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	addr := ":" + cfg.Server.HTTPPort
	srv := &http.Server{
		Addr:              addr,
		Handler:           requestMetricsMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("kiosk-server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = srv.Close()
	}
	log.Printf("shutdown complete")
}

// openStore builds a Postgres-backed store if DATABASE_URL is configured,
// falling back to an in-memory store seeded with a starter room catalog
// for local/dev runs.
func openStore(cfg config.Config, ten *tenant.Tenant) (storage.Store, func()) {
	if cfg.Database.DSN == "" {
		log.Printf("kiosk-server: DATABASE_URL not set, using in-memory storage")
		return storage.NewMemoryStore(starterInventory(ten.ID)...), func() {}
	}
	st, err := storage.NewPostgresStore(context.Background(), cfg.Database.DSN)
	if err != nil {
		log.Fatalf("postgres store init failed: %v", err)
	}
	return st, func() { _ = st.Close() }
}

func starterInventory(tenantID uuid.UUID) []storage.RoomType {
	return []storage.RoomType{
		{ID: uuid.New(), TenantID: tenantID, Code: "standard", Name: "Standard Room", Price: 120, Amenities: []string{"queen bed", "wifi"}},
		{ID: uuid.New(), TenantID: tenantID, Code: "deluxe", Name: "Deluxe Room", Price: 180, Amenities: []string{"king bed", "wifi", "city view"}},
		{ID: uuid.New(), TenantID: tenantID, Code: "suite", Name: "Suite", Price: 260, Amenities: []string{"king bed", "wifi", "living area", "city view"}},
	}
}

// defaultTenant builds the single hotel this process serves. A kiosk
// deployment typically dedicates one device (and one backend process)
// per hotel, so there is no tenant-loading database here.
func defaultTenant() *tenant.Tenant {
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

func newProviderDialer(cfg config.Config) sttrelay.Dialer {
	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	return func(ctx context.Context, sampleRate int, language string) *sttrelay.ProviderConn {
		lang := language
		if lang == "" {
			lang = cfg.STT.Language
		}
		return sttrelay.NewProviderConn(ctx, sttrelay.ProviderConfig{
			Model:         cfg.STT.Model,
			Language:      lang,
			EndpointingMs: cfg.STT.EndpointingMs,
			UtterEndMs:    cfg.STT.UtteranceEndMs,
			BaseURL:       cfg.STT.WSURL,
			SampleRate:    sampleRate,
		}, apiKey)
	}
}

// requestMetricsMiddleware mirrors the teacher's logMiddleware, additionally
// recording each request into observability.HTTPRequestsTotal by route and
// status class.
func requestMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		observability.HTTPRequestsTotal.WithLabelValues(r.URL.Path, statusClass(rec.status)).Inc()
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
