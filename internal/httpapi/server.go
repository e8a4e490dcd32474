// Package httpapi exposes the kiosk's tenant-scoped HTTP surface, per
// spec.md §6: health, the two chat brains, and read-only room/tenant
// lookups. It never touches the voice runtime directly; that pipeline
// is driven by internal/voiceruntime over the STT relay, not HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"kiosk/runtime/internal/bookingbrain"
	"kiosk/runtime/internal/intent"
	"kiosk/runtime/internal/kioskerr"
	"kiosk/runtime/internal/storage"
	"kiosk/runtime/internal/tenant"
)

// Server wires the tenant registry, per-tenant mediators/booking brains,
// and room inventory store into chi routes.
type Server struct {
	tenants       *tenant.Registry
	mediators     map[string]*intent.Mediator    // keyed by tenant slug
	bookingBrains map[string]*bookingbrain.Brain // keyed by tenant slug
	store         storage.Store
	defaultTen    string // slug used by the tenant-less /api/chat routes
}

// New constructs a Server. mediators and bookingBrains must carry one
// entry per tenant known to tenants, keyed by the tenant's slug.
func New(tenants *tenant.Registry, mediators map[string]*intent.Mediator, bookingBrains map[string]*bookingbrain.Brain, store storage.Store, defaultTenantSlug string) *Server {
	return &Server{
		tenants:       tenants,
		mediators:     mediators,
		bookingBrains: bookingBrains,
		store:         store,
		defaultTen:    defaultTenantSlug,
	}
}

func (s *Server) bookingBrainFor(slug string) (*bookingbrain.Brain, bool) {
	b, ok := s.bookingBrains[slug]
	return b, ok
}

// Router builds the route table described in spec.md §6.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Post("/api/chat", s.handleChatNoTenant)

	r.Route("/api/{tenantSlug}", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/booking", s.handleChatBooking)
		r.Get("/rooms", s.handleRooms)
		r.Get("/tenant", s.handleTenant)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveTenant looks up the tenant named by the chi URL param, falling
// back to the x-tenant-slug header (tenant.ResolveSlug), and writes a 404
// kiosk-taxonomy error if it can't be found.
func (s *Server) resolveTenant(w http.ResponseWriter, r *http.Request) (*tenant.Tenant, bool) {
	slug := chi.URLParam(r, "tenantSlug")
	t, err := s.tenants.Resolve(slug, r)
	if err != nil {
		respondError(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
		return nil, false
	}
	return t, true
}

func (s *Server) mediatorFor(slug string) (*intent.Mediator, bool) {
	m, ok := s.mediators[slug]
	return m, ok
}

// chatRequest is the wire shape for both /api/chat and
// /api/{tenantSlug}/chat, per spec.md §6.
type chatRequest struct {
	SessionID  string `json:"sessionId"`
	Transcript string `json:"transcript"`
}

type chatResponse struct {
	State        string `json:"state"`
	Speech       string `json:"speech,omitempty"`
	Transitioned bool   `json:"transitioned"`
}

// handleChatNoTenant serves /api/chat against the server's configured
// default tenant, for deployments that only ever run one hotel.
func (s *Server) handleChatNoTenant(w http.ResponseWriter, r *http.Request) {
	s.dispatchChat(w, r, s.defaultTen)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	t, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	s.dispatchChat(w, r, t.Slug)
}

func (s *Server) dispatchChat(w http.ResponseWriter, r *http.Request, slug string) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "could not parse request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "sessionId is required")
		return
	}

	m, ok := s.mediatorFor(slug)
	if !ok {
		respondError(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
		return
	}

	res, err := m.Dispatch(r.Context(), req.SessionID, req.Transcript)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, chatResponse{
		State:        string(res.State),
		Speech:       res.Speech,
		Transitioned: res.Transitioned,
	})
}

// bookingChatRequest extends chatRequest with the slot-filling context a
// booking turn carries, per spec.md §4.9/§6.
type bookingChatRequest struct {
	SessionID        string                    `json:"sessionId"`
	Transcript       string                    `json:"transcript"`
	CurrentState     string                    `json:"currentState"`
	ActiveSlot       string                    `json:"activeSlot"`
	ExpectedType     string                    `json:"expectedType"`
	LastSystemPrompt string                    `json:"lastSystemPrompt"`
	FilledSlots      bookingbrain.BookingSlots `json:"filledSlots"`
}

// handleChatBooking is a thin HTTP wrapper over bookingbrain.Brain rather
// than the mediator: booking slot-filling is driven client-side turn by
// turn (spec.md §4.9), with the mediator only consulted for the final
// CONFIRM_BOOKING/fast-path transition via /chat.
func (s *Server) handleChatBooking(w http.ResponseWriter, r *http.Request) {
	t, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}

	var req bookingChatRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "MALFORMED_REQUEST", "could not parse request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		respondError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "sessionId is required")
		return
	}

	brain, ok := s.bookingBrainFor(t.Slug)
	if !ok {
		respondError(w, http.StatusNotFound, "TENANT_NOT_FOUND", "tenant not found")
		return
	}

	resp, err := brain.Handle(r.Context(), bookingbrain.Request{
		Transcript:       req.Transcript,
		CurrentState:     req.CurrentState,
		SessionID:        req.SessionID,
		ActiveSlot:       req.ActiveSlot,
		ExpectedType:     req.ExpectedType,
		LastSystemPrompt: req.LastSystemPrompt,
		FilledSlots:      req.FilledSlots,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	t, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	rooms, err := s.store.ListRoomTypes(r.Context(), t.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := s.resolveTenant(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// writeDomainError maps a domain error to an HTTP status, per
// SPEC_FULL.md's ambient error-handling section. The checks run in order:
// storage.ErrDateConflict maps to 409 directly since the booking brain
// returns it unwrapped (spec.md §4.9); tenant.ErrNotFound maps to 404; a
// kioskerr.Error maps by its Kind (user 400, conflict 409, policy 403,
// any other kind 500); anything else is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrDateConflict) {
		respondError(w, http.StatusConflict, "BOOKING_DATE_CONFLICT", err.Error())
		return
	}
	if errors.Is(err, tenant.ErrNotFound) {
		respondError(w, http.StatusNotFound, "TENANT_NOT_FOUND", err.Error())
		return
	}
	if kind, ok := kioskerr.KindOf(err); ok {
		code, _ := kioskerr.CodeOf(err)
		status := http.StatusInternalServerError
		switch kind {
		case kioskerr.KindUser:
			status = http.StatusBadRequest
		case kioskerr.KindConflict:
			status = http.StatusConflict
		case kioskerr.KindPolicy:
			status = http.StatusForbidden
		}
		respondError(w, status, code, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
