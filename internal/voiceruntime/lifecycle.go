package voiceruntime

import (
	"context"
	"log"
	"time"

	"kiosk/runtime/internal/fsm"
)

// inactivityPollInterval is how often the background watcher checks every
// known session against intent.Mediator.CheckInactivity, per spec.md §4.6
// step 6's 120s inactivity reset.
const inactivityPollInterval = 5 * time.Second

// DispatchTouch routes a touch-originated intent through the intent
// mediator and reacts to the result the same way a voice turn would:
// speaking any onboarding prompt and muting/unmuting voice capture for the
// destination state.
func (r *Runtime) DispatchTouch(ctx context.Context, sessionID string, touchIntent fsm.Intent) {
	if r.mediator == nil {
		return
	}
	res := r.mediator.DispatchTouch(ctx, sessionID, touchIntent)
	r.afterDispatch(ctx, sessionID, res)
}

// WatchInactivity starts a background goroutine polling every known
// session for the mediator's 120s inactivity timeout, hard-stopping audio
// and wiping any session it resets. It runs until ctx is cancelled,
// mirroring the teacher's ticker-driven reaper in internal/stt/server.go.
func (r *Runtime) WatchInactivity(ctx context.Context) {
	ticker := time.NewTicker(inactivityPollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweepInactiveSessions()
			}
		}
	}()
}

func (r *Runtime) sweepInactiveSessions() {
	if r.mediator == nil {
		return
	}
	for _, sessionID := range r.knownSessionIDs() {
		if r.mediator.CheckInactivity(sessionID) {
			log.Printf("[voiceruntime] session=%s reset for inactivity", sessionID)
			r.hardStopAll(sessionID)
			r.publish(Event{Type: EventSessionEnded, SessionID: sessionID})
		}
	}
}

func (r *Runtime) knownSessionIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
