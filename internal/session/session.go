// Package session implements the in-memory session store shared by the
// general chat brain and the booking brain: rolling chat history and
// partial booking slots per sessionId, wiped on any transition back to
// IDLE or WELCOME for privacy, per spec.md §3 and §8.
package session

import "sync"

// Role distinguishes a chat turn's speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's rolling chat history.
type Turn struct {
	Role    Role
	Content string
}

// historyCap bounds the rolling history per spec.md §3 ("capped at N
// turns"); the general chat brain additionally only reads the last 6
// when building an LLM prompt (spec.md §4.8), but the store itself
// retains more so a later slot-filling turn can still see earlier
// context.
const historyCap = 20

// Slots is an opaque partial booking-slot map. The bookingbrain package
// owns the concrete BookingSlots shape; the store only needs to hold and
// merge it, so it's typed here as a generic string-keyed map to avoid an
// import cycle between session and bookingbrain.
type Slots map[string]any

// Session is one guest's chat + booking state.
type Session struct {
	History   []Turn
	Slots     Slots
	BookingID string
}

// Store is a concurrency-safe in-memory map keyed by sessionId.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore constructs an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it lazily on first
// access per spec.md §3.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{Slots: make(Slots)}
		s.sessions[id] = sess
	}
	return sess
}

// AppendTurn appends a user/assistant turn and trims history to
// historyCap, oldest first.
func (s *Store) AppendTurn(id string, role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{Slots: make(Slots)}
		s.sessions[id] = sess
	}
	sess.History = append(sess.History, Turn{Role: role, Content: content})
	if len(sess.History) > historyCap {
		sess.History = sess.History[len(sess.History)-historyCap:]
	}
}

// RecentHistory returns the most recent n turns, oldest first.
func (s *Store) RecentHistory(id string, n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || len(sess.History) == 0 {
		return nil
	}
	if n >= len(sess.History) {
		out := make([]Turn, len(sess.History))
		copy(out, sess.History)
		return out
	}
	out := make([]Turn, n)
	copy(out, sess.History[len(sess.History)-n:])
	return out
}

// MergeSlots merges incoming into the session's stored slots. Per
// spec.md §4.9, client-echoed values win only when non-empty/non-nil.
func (s *Store) MergeSlots(id string, incoming Slots) Slots {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{Slots: make(Slots)}
		s.sessions[id] = sess
	}
	for k, v := range incoming {
		if isEmptyValue(v) {
			continue
		}
		sess.Slots[k] = v
	}
	out := make(Slots, len(sess.Slots))
	for k, v := range sess.Slots {
		out[k] = v
	}
	return out
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

// SetBookingID records the draft/confirmed booking id associated with a
// session's active slot-filling flow.
func (s *Store) SetBookingID(id, bookingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{Slots: make(Slots)}
		s.sessions[id] = sess
	}
	sess.BookingID = bookingID
}

// Wipe deletes the session entry entirely. Called on any transition to
// IDLE or WELCOME; per spec.md §8, the wipe must be visible to the next
// request.
func (s *Store) Wipe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Exists reports whether a session entry is currently present.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}
