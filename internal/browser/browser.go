// package browser abstracts the host windowing system behind a small
// environment interface so the session and payment flows can be driven
// without a real browser.
package browser

import "fmt"

// AuthCallbackAction tags the message a login popup posts back to its
// opener once the identity provider redirect completes.
const AuthCallbackAction = "__AUTH_CALLBACK__"

// CallbackPayload is the body of an [AuthCallbackAction] message. Status
// carries an HTTP-status-like integer from the callback page.
type CallbackPayload struct {
	Status int `json:"status"`
}

// Message is a point-to-point window message. Matching is by Action tag,
// never by payload shape.
type Message struct {
	Action  string
	Payload any
	Source  Window // window the message was posted from
}

// Features describes the window chrome requested for a popup.
type Features struct {
	Width    int
	Height   int
	Menubar  bool
	Toolbar  bool
	Location bool
}

// PopupFeatures returns the standard 600x600 chromeless popup geometry.
func PopupFeatures() Features {
	return Features{Width: 600, Height: 600}
}

// String renders the features in window.open feature-string form.
func (f Features) String() string {
	return fmt.Sprintf("popup=true,width=%d,height=%d,menubar=%t,toolbar=%t,location=%t",
		f.Width, f.Height, f.Menubar, f.Toolbar, f.Location)
}

// Window is a live window reference.
//
// Whoever opened a popup window is responsible for closing it when its
// owning flow completes, errors, or is cancelled; nothing closes popups
// automatically.
type Window interface {
	// URL returns the address the window was opened at.
	URL() string

	// Post delivers a message to this window's inbox. Posting to a closed
	// or navigated-away window is silently ignored (best-effort, nil error).
	Post(msg Message) error

	// Subscribe registers a listener for messages posted to this window.
	// The returned cancel func releases the listener; the message channel
	// is closed on cancel or window close.
	Subscribe() (<-chan Message, func())

	// Closed is closed exactly once when the window transitions to closed,
	// regardless of cause.
	Closed() <-chan struct{}

	// Close closes the window. Idempotent.
	Close() error
}

// Environment is the host windowing system: it opens popups, navigates
// the current document, and identifies the current window context.
type Environment interface {
	// Open opens a popup at url. A blocked popup yields an error matching
	// shared.ErrPopupBlocked; the caller must then fall back to Navigate
	// and treat the popup flow as will-never-complete.
	Open(url string, features Features) (Window, error)

	// Navigate performs full-document navigation to url.
	Navigate(url string) error

	// Self returns the current window context.
	Self() Window

	// Opener returns the window that opened this one, or nil when not
	// running inside a popup context.
	Opener() Window

	// CallbackURL is the address the identity provider should redirect
	// back to when a popup flow completes.
	CallbackURL() string
}
