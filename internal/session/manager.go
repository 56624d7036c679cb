package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/inkpot-dev/inkwell/internal/browser"
	"github.com/inkpot-dev/inkwell/internal/channel"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

// API is what the session machine needs from the platform client.
type API interface {
	// AuthorizeURL builds the provider authorize address for a popup.
	AuthorizeURL(provider, nextURL string) string

	// Userinfo fetches the authenticated account's profile.
	Userinfo(ctx context.Context) (*models.UserProfile, error)

	// AccessToken mints a fresh short-lived bearer token.
	AccessToken(ctx context.Context) (*models.AccessToken, error)

	// SetToken propagates a newly committed token to the client.
	SetToken(tok models.AccessToken)

	// ClearToken drops the propagated token after degradation or logout.
	ClearToken()
}

// authFlow is the cancellation scope of one in-flight authorize call.
type authFlow struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager drives the session lifecycle: bootstrap, popup authorization,
// token refresh, and logout. All session state lives in its [Store] and
// is mutated exclusively through dispatched events.
type Manager struct {
	store  *Store
	api    API
	env    browser.Environment
	logger *log.Logger

	mu   sync.Mutex
	flow *authFlow
	gen  uint64 // token commit generation; see beginCommit/commit

	refresher *refresher
}

// NewManager creates a session manager bound to a platform client and a
// window environment.
func NewManager(api API, env browser.Environment, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &Manager{
		store:  NewStore(),
		api:    api,
		env:    env,
		logger: logger,
	}
	m.refresher = newRefresher(m)
	return m
}

// Store exposes the session store for snapshot reads and subscriptions.
func (m *Manager) Store() *Store { return m.store }

// State returns the current session snapshot.
func (m *Manager) State() State { return m.store.State() }

// Bootstrap runs the initial session fetch: profile and access token in
// parallel, both required before the session leaves Initializing.
//
// Failures are swallowed and the session settles anonymous; a logged-out
// visitor must never be blocked by a transient identity-service hiccup.
// If ctx is cancelled before the fetches settle, no state is committed.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.store.Dispatch(EventBootstrapStarted{})

	gen := m.beginCommit()
	user, tok, err := m.fetchSession(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.logger.Debug("bootstrap failed, continuing anonymous", "error", err)
		m.commit(gen, EventBootstrapFailed{}, nil)
		return
	}

	m.commit(gen, EventSessionEstablished{User: user, Token: tok}, tok)
}

// Authorize runs the popup login flow against the named identity
// provider and, on a successful callback, refreshes the whole session.
//
// Only one authorize flow may be in flight; a superseding call fully
// cancels the prior flow (channel closed, popup closed) before opening
// its own popup. The popup and channel are always released and the
// authorizing flag always cleared, whatever the outcome.
func (m *Manager) Authorize(ctx context.Context, provider string) error {
	if !m.store.State().Initialized() {
		return fmt.Errorf("%w: bootstrap has not settled", shared.ErrSessionNotReady)
	}

	flowCtx, fl := m.beginFlow(ctx)
	defer m.endFlow(fl)

	m.store.Dispatch(EventAuthorizeStarted{Provider: provider})
	defer m.store.Dispatch(EventAuthorizeSettled{})

	authorizeURL := m.api.AuthorizeURL(provider, m.env.CallbackURL())

	popup, err := m.env.Open(authorizeURL, browser.PopupFeatures())
	if err != nil {
		if errors.Is(err, shared.ErrPopupBlocked) {
			// The flow cannot continue out-of-band; hand the document over.
			if nerr := m.env.Navigate(authorizeURL); nerr != nil {
				m.logger.Warn("fallback navigation failed", "error", nerr)
			}
			return fmt.Errorf("%w: continuing by full-page navigation", shared.ErrPopupBlocked)
		}
		return err
	}
	defer popup.Close()

	ch := channel.Open(m.env.Self(), popup, browser.AuthCallbackAction)
	defer ch.Close()

	select {
	case <-flowCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return shared.ErrFlowSuperseded

	case <-popup.Closed():
		// The user closed the provider window without completing.
		return shared.ErrPopupClosed

	case msg := <-ch.Receive():
		status := callbackStatus(msg)
		if status < 200 || status > 299 {
			return fmt.Errorf("%w: callback status %d", shared.ErrAuthorizeFailed, status)
		}
		return m.refreshSession(flowCtx)
	}
}

// Callback runs in the popup's own context once the provider redirect
// lands: it relays the payload to the opener window, best-effort, and
// releases the channel. A vanished opener is not an error.
func (m *Manager) Callback(payload browser.CallbackPayload) {
	opener := m.env.Opener()
	if opener == nil {
		return
	}

	ch := channel.Open(m.env.Self(), opener, browser.AuthCallbackAction)
	defer ch.Close()

	if err := ch.Send(browser.Message{Action: browser.AuthCallbackAction, Payload: payload}); err != nil {
		m.logger.Debug("opener unreachable", "error", err)
	}
}

// Logout resets the session to Ready(anonymous) and tears down the
// refresh schedule and any in-flight authorize flow. Local only; no
// server-side invalidation call is made.
func (m *Manager) Logout() {
	m.cancelFlow()
	m.refresher.Stop()

	m.mu.Lock()
	m.gen++ // invalidate pending token commits
	m.mu.Unlock()

	m.api.ClearToken()
	m.store.Dispatch(EventLoggedOut{})
}

// Close tears the manager down: refresh timer, in-flight refresh request,
// and any running authorize flow are cancelled together. No state is
// dispatched after Close.
func (m *Manager) Close() {
	m.cancelFlow()
	m.refresher.Stop()

	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

// fetchSession issues the profile and token requests in parallel and
// waits for both; partial completion is never observable.
func (m *Manager) fetchSession(ctx context.Context) (*models.UserProfile, *models.AccessToken, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type userResult struct {
		user *models.UserProfile
		err  error
	}
	type tokenResult struct {
		token *models.AccessToken
		err   error
	}

	userCh := make(chan userResult, 1)
	tokenCh := make(chan tokenResult, 1)

	go func() {
		user, err := m.api.Userinfo(ctx)
		userCh <- userResult{user: user, err: err}
	}()
	go func() {
		token, err := m.api.AccessToken(ctx)
		tokenCh <- tokenResult{token: token, err: err}
	}()

	ur := <-userCh
	tr := <-tokenCh

	if ur.err != nil {
		return nil, nil, fmt.Errorf("userinfo: %w", ur.err)
	}
	if tr.err != nil {
		return nil, nil, fmt.Errorf("access token: %w", tr.err)
	}

	return ur.user, tr.token, nil
}

// refreshSession is the bootstrap-style refresh run after a successful
// authorize callback. Unlike Bootstrap, failures surface to the caller.
func (m *Manager) refreshSession(ctx context.Context) error {
	gen := m.beginCommit()
	user, tok, err := m.fetchSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	m.commit(gen, EventSessionEstablished{User: user, Token: tok}, tok)
	return nil
}

// beginCommit captures the commit generation a token-bearing request
// belongs to. The matching commit applies only while no newer commit has
// landed in between: last-committed-wins, not arrival-order.
func (m *Manager) beginCommit() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// commit applies ev if gen is still current and, when tok is non-nil,
// propagates it and re-arms the refresh schedule with its TTL. Returns
// whether the commit applied.
func (m *Manager) commit(gen uint64, ev Event, tok *models.AccessToken) bool {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug("stale session commit dropped")
		return false
	}
	m.gen++
	m.mu.Unlock()

	m.store.Dispatch(ev)

	if tok != nil {
		m.api.SetToken(*tok)
		m.refresher.Arm(tok.TTL)
	}

	return true
}

// beginFlow establishes the cancellation scope for an authorize call,
// fully cancelling and waiting out any prior flow first so two popups
// never race to write session state.
func (m *Manager) beginFlow(ctx context.Context) (context.Context, *authFlow) {
	m.mu.Lock()
	for m.flow != nil {
		prev := m.flow
		m.mu.Unlock()

		prev.cancel()
		<-prev.done

		m.mu.Lock()
	}

	flowCtx, cancel := context.WithCancel(ctx)
	fl := &authFlow{cancel: cancel, done: make(chan struct{})}
	m.flow = fl
	m.mu.Unlock()

	return flowCtx, fl
}

// endFlow releases the flow's slot and cancellation scope.
func (m *Manager) endFlow(fl *authFlow) {
	m.mu.Lock()
	if m.flow == fl {
		m.flow = nil
	}
	m.mu.Unlock()

	fl.cancel()
	close(fl.done)
}

// cancelFlow cancels a running authorize flow, if any, and waits for its
// resources (popup, channel) to be released.
func (m *Manager) cancelFlow() {
	m.mu.Lock()
	fl := m.flow
	m.mu.Unlock()

	if fl != nil {
		fl.cancel()
		<-fl.done
	}
}

// callbackStatus extracts the status integer from a callback message,
// whatever concrete payload shape the poster used.
func callbackStatus(msg browser.Message) int {
	switch p := msg.Payload.(type) {
	case browser.CallbackPayload:
		return p.Status
	case *browser.CallbackPayload:
		return p.Status
	case map[string]any:
		switch v := p["status"].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
