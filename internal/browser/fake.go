package browser

import (
	"fmt"
	"sync"

	"github.com/inkpot-dev/inkwell/internal/shared"
)

// FakeWindow is an in-memory [Window] for tests.
type FakeWindow struct {
	*winCore
}

// NewFakeWindow creates a fake window "opened" at url.
func NewFakeWindow(url string) *FakeWindow {
	return &FakeWindow{winCore: newWinCore(url)}
}

// FakeEnvironment is an in-memory [Environment] for tests. It records
// opened windows and navigations, and can simulate a popup blocker and a
// popup context (non-nil opener).
type FakeEnvironment struct {
	mu          sync.Mutex
	self        *FakeWindow
	opener      Window
	opened      []*FakeWindow
	navigations []string
	blocked     bool
	callbackURL string
}

// NewFakeEnvironment creates a fake environment whose Self window is live.
func NewFakeEnvironment() *FakeEnvironment {
	return &FakeEnvironment{
		self:        NewFakeWindow("about:client"),
		callbackURL: "https://app.inkwell.example/login/state",
	}
}

// SetBlocked toggles popup-blocker simulation.
func (e *FakeEnvironment) SetBlocked(blocked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocked = blocked
}

// SetOpener marks this environment as a popup context opened by w.
func (e *FakeEnvironment) SetOpener(w Window) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opener = w
}

func (e *FakeEnvironment) Open(url string, features Features) (Window, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.blocked {
		return nil, fmt.Errorf("%w: %s", shared.ErrPopupBlocked, url)
	}

	w := NewFakeWindow(url)
	e.opened = append(e.opened, w)
	return w, nil
}

func (e *FakeEnvironment) Navigate(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.navigations = append(e.navigations, url)
	return nil
}

func (e *FakeEnvironment) Self() Window { return e.self }

func (e *FakeEnvironment) Opener() Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opener
}

func (e *FakeEnvironment) CallbackURL() string { return e.callbackURL }

// Opened returns every window opened so far, in order.
func (e *FakeEnvironment) Opened() []*FakeWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*FakeWindow(nil), e.opened...)
}

// LastOpened returns the most recently opened window, or nil.
func (e *FakeEnvironment) LastOpened() *FakeWindow {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.opened) == 0 {
		return nil
	}
	return e.opened[len(e.opened)-1]
}

// Navigations returns every full-document navigation performed so far.
func (e *FakeEnvironment) Navigations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.navigations...)
}
