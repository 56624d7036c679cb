package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/inkpot-dev/inkwell/internal/browser"
	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

// fakeAPI is a controllable test double for [API].
type fakeAPI struct {
	mu         sync.Mutex
	user       *models.UserProfile
	userErr    error
	token      *models.AccessToken
	tokenErr   error
	tokenCalls int
	setTokens  []models.AccessToken
	cleared    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:  &models.UserProfile{CanonicalName: "margot", DisplayName: "Margot"},
		token: &models.AccessToken{Subject: "margot", Value: "tok-1", TTL: time.Hour},
	}
}

func (f *fakeAPI) AuthorizeURL(provider, nextURL string) string {
	return fmt.Sprintf("https://auth.test/idp/%s/authorize?next_url=%s", provider, nextURL)
}

func (f *fakeAPI) Userinfo(ctx context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeAPI) AccessToken(ctx context.Context) (*models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return f.token, nil
}

func (f *fakeAPI) SetToken(tok models.AccessToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTokens = append(f.setTokens, tok)
}

func (f *fakeAPI) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeAPI) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userErr = err
	f.tokenErr = err
}

func (f *fakeAPI) succeed(token *models.AccessToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userErr = nil
	f.tokenErr = nil
	if token != nil {
		f.token = token
	}
}

func (f *fakeAPI) clearedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func (f *fakeAPI) setTokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.setTokens)
}

// waitForPopup polls the fake environment until an authorize flow has
// opened its popup.
func waitForPopup(t *testing.T, env *browser.FakeEnvironment) *browser.FakeWindow {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if w := env.LastOpened(); w != nil {
			return w
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for popup to open")
	return nil
}

// settleCallback posts the provider callback until the flow settles.
// Reposting papers over the gap between the popup opening and the flow
// starting to listen; duplicates are dropped by the exactly-once select.
func settleCallback(t *testing.T, env *browser.FakeEnvironment, popup *browser.FakeWindow, status int, done <-chan error) error {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		env.Self().Post(browser.Message{
			Action:  browser.AuthCallbackAction,
			Payload: browser.CallbackPayload{Status: status},
			Source:  popup,
		})

		select {
		case err := <-done:
			return err
		case <-timeout:
			t.Fatal("timed out waiting for authorize to settle")
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestBootstrap(t *testing.T) {
	t.Run("Establishes Session", func(t *testing.T) {
		api := newFakeAPI()
		m := NewManager(api, browser.NewFakeEnvironment(), nil)
		defer m.Close()

		m.Bootstrap(context.Background())

		state := m.State()
		if !state.Initialized() || !state.Authenticated() {
			t.Fatalf("expected ready authenticated session, got %+v", state)
		}
		if state.User.CanonicalName != "margot" {
			t.Errorf("unexpected profile %+v", state.User)
		}
		if api.setTokenCount() != 1 {
			t.Errorf("expected token propagated once, got %d", api.setTokenCount())
		}
	})

	t.Run("Fails Open To Anonymous", func(t *testing.T) {
		api := newFakeAPI()
		api.fail(errors.New("identity service down"))
		m := NewManager(api, browser.NewFakeEnvironment(), nil)
		defer m.Close()

		m.Bootstrap(context.Background())

		state := m.State()
		if !state.Initialized() {
			t.Fatal("bootstrap failure must still settle the session")
		}
		if state.Authenticated() || state.User != nil {
			t.Errorf("expected anonymous session, got %+v", state)
		}
	})

	t.Run("Cancelled Context Commits Nothing", func(t *testing.T) {
		api := newFakeAPI()
		m := NewManager(api, browser.NewFakeEnvironment(), nil)
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m.Bootstrap(ctx)

		if state := m.State(); state.Initialized() {
			t.Errorf("cancelled bootstrap must not settle, got %+v", state)
		}
	})
}

func TestAuthorize(t *testing.T) {
	bootstrapAnonymous := func(t *testing.T, api *fakeAPI, env *browser.FakeEnvironment) *Manager {
		t.Helper()
		api.fail(errors.New("not signed in"))
		m := NewManager(api, env, nil)
		m.Bootstrap(context.Background())
		if !m.State().Initialized() || m.State().Authenticated() {
			t.Fatal("expected anonymous ready session")
		}
		return m
	}

	t.Run("Requires Settled Bootstrap", func(t *testing.T) {
		m := NewManager(newFakeAPI(), browser.NewFakeEnvironment(), nil)
		defer m.Close()

		err := m.Authorize(context.Background(), "google")
		if !errors.Is(err, shared.ErrSessionNotReady) {
			t.Errorf("expected ErrSessionNotReady, got %v", err)
		}
	})

	t.Run("Successful Callback Refreshes Session", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		done := make(chan error, 1)
		go func() { done <- m.Authorize(context.Background(), "google") }()

		popup := waitForPopup(t, env)
		api.succeed(nil)
		if err := settleCallback(t, env, popup, 204, done); err != nil {
			t.Fatalf("authorize failed: %v", err)
		}

		state := m.State()
		if !state.Authenticated() {
			t.Fatal("expected authenticated session after authorize")
		}
		if state.AuthorizingProvider != "" {
			t.Error("authorizing flag must clear when the flow settles")
		}
		select {
		case <-popup.Closed():
		default:
			t.Error("popup must be closed when the flow settles")
		}
	})

	t.Run("Failure Status Surfaces", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		done := make(chan error, 1)
		go func() { done <- m.Authorize(context.Background(), "google") }()

		popup := waitForPopup(t, env)
		if err := settleCallback(t, env, popup, 500, done); !errors.Is(err, shared.ErrAuthorizeFailed) {
			t.Errorf("expected ErrAuthorizeFailed, got %v", err)
		}

		if m.State().Authenticated() {
			t.Error("failed authorize must not authenticate the session")
		}
	})

	t.Run("Blocked Popup Falls Back To Navigation", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		env.SetBlocked(true)

		err := m.Authorize(context.Background(), "google")
		if !errors.Is(err, shared.ErrPopupBlocked) {
			t.Fatalf("expected ErrPopupBlocked, got %v", err)
		}

		navs := env.Navigations()
		if len(navs) != 1 {
			t.Fatalf("expected one fallback navigation, got %d", len(navs))
		}
		if navs[0] != api.AuthorizeURL("google", env.CallbackURL()) {
			t.Errorf("unexpected navigation target %s", navs[0])
		}
	})

	t.Run("Closed Popup Aborts", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		done := make(chan error, 1)
		go func() { done <- m.Authorize(context.Background(), "google") }()

		popup := waitForPopup(t, env)
		popup.Close()

		select {
		case err := <-done:
			if !errors.Is(err, shared.ErrPopupClosed) {
				t.Errorf("expected ErrPopupClosed, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for authorize")
		}
	})

	t.Run("Cancelled Context Aborts", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- m.Authorize(ctx, "google") }()

		waitForPopup(t, env)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for authorize")
		}
	})

	t.Run("Second Flow Supersedes First", func(t *testing.T) {
		api := newFakeAPI()
		env := browser.NewFakeEnvironment()
		m := bootstrapAnonymous(t, api, env)
		defer m.Close()

		first := make(chan error, 1)
		go func() { first <- m.Authorize(context.Background(), "google") }()
		firstPopup := waitForPopup(t, env)

		second := make(chan error, 1)
		go func() { second <- m.Authorize(context.Background(), "github") }()

		select {
		case err := <-first:
			if !errors.Is(err, shared.ErrFlowSuperseded) {
				t.Errorf("expected ErrFlowSuperseded, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for superseded flow")
		}

		select {
		case <-firstPopup.Closed():
		default:
			t.Error("superseded flow must close its popup")
		}

		// The second flow owns the only live popup now; complete it.
		var secondPopup *browser.FakeWindow
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if w := env.LastOpened(); w != nil && w != firstPopup {
				secondPopup = w
				break
			}
			time.Sleep(time.Millisecond)
		}
		if secondPopup == nil {
			t.Fatal("timed out waiting for second popup")
		}

		api.succeed(nil)
		if err := settleCallback(t, env, secondPopup, 200, second); err != nil {
			t.Fatalf("second authorize failed: %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	t.Run("Resets Session Locally", func(t *testing.T) {
		api := newFakeAPI()
		m := NewManager(api, browser.NewFakeEnvironment(), nil)
		defer m.Close()

		m.Bootstrap(context.Background())
		if !m.State().Authenticated() {
			t.Fatal("expected authenticated session before logout")
		}

		m.Logout()

		state := m.State()
		if !state.Initialized() || state.Authenticated() || state.User != nil {
			t.Errorf("expected anonymous ready session, got %+v", state)
		}
		if api.clearedCount() == 0 {
			t.Error("expected the client token to be cleared")
		}
	})

	t.Run("Invalidates Pending Commits", func(t *testing.T) {
		api := newFakeAPI()
		m := NewManager(api, browser.NewFakeEnvironment(), nil)
		defer m.Close()

		m.Bootstrap(context.Background())

		gen := m.beginCommit()
		m.Logout()

		tok := &models.AccessToken{Subject: "margot", Value: "stale", TTL: time.Hour}
		if m.commit(gen, EventTokenRefreshed{Token: tok}, tok) {
			t.Error("a commit begun before logout must not apply")
		}
		if m.State().Authenticated() {
			t.Error("stale token leaked into the session")
		}
	})
}

func TestCallback(t *testing.T) {
	t.Run("Relays Payload To Opener", func(t *testing.T) {
		opener := browser.NewFakeWindow("https://app.test")
		env := browser.NewFakeEnvironment()
		env.SetOpener(opener)

		m := NewManager(newFakeAPI(), env, nil)
		defer m.Close()

		in, cancel := opener.Subscribe()
		defer cancel()

		m.Callback(browser.CallbackPayload{Status: 204})

		select {
		case msg := <-in:
			if msg.Action != browser.AuthCallbackAction {
				t.Errorf("expected callback action, got %s", msg.Action)
			}
			if msg.Source != env.Self() {
				t.Error("expected message source to be the popup's own window")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for relayed callback")
		}
	})

	t.Run("Missing Opener Is Not An Error", func(t *testing.T) {
		m := NewManager(newFakeAPI(), browser.NewFakeEnvironment(), nil)
		defer m.Close()

		m.Callback(browser.CallbackPayload{Status: 204})
	})
}
