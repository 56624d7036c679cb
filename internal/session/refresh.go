package session

import (
	"context"
	"sync"
	"time"
)

// refresher schedules the single-shot token refresh. Each successful
// refresh re-arms the timer with the TTL the server declared on the new
// token; a failed refresh clears the token and does not re-arm, leaving
// recovery to an explicit re-authorize.
type refresher struct {
	m *Manager

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

func newRefresher(m *Manager) *refresher {
	return &refresher{m: m}
}

// Arm schedules a refresh after ttl, replacing any pending schedule.
func (r *refresher) Arm(ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.timer = time.AfterFunc(ttl, func() { r.fire(ctx) })
}

// Stop cancels the pending schedule and any refresh request in flight.
func (r *refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *refresher) stopLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// fire runs one refresh attempt. The commit generation is captured
// before the request so a token that raced with a logout or a fresh
// authorize never overwrites the newer session state.
func (r *refresher) fire(ctx context.Context) {
	m := r.m

	gen := m.beginCommit()
	tok, err := m.api.AccessToken(ctx)
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		m.logger.Warn("token refresh failed, session degrades to unauthenticated", "error", err)
		if m.commit(gen, EventTokenCleared{}, nil) {
			m.api.ClearToken()
		}
		return
	}

	// commit re-arms the schedule with the new token's TTL.
	m.commit(gen, EventTokenRefreshed{Token: tok}, tok)
}
