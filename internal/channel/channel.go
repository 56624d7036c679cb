// package channel implements the typed point-to-point message channel
// between an opener window and a popup it spawned.
package channel

import (
	"sync"

	"github.com/inkpot-dev/inkwell/internal/browser"
)

// Channel delivers action-tagged messages between exactly two windows.
//
// Messages arriving on the self window are yielded only when they
// originate from the bound counterpart AND carry a recognized action tag;
// everything else is dropped without side effects. The channel imposes no
// timeout: a consumer waiting for a message that never arrives waits
// until it cancels on its own terms.
type Channel struct {
	self    browser.Window
	peer    browser.Window
	actions map[string]struct{}

	mu     sync.Mutex
	out    chan browser.Message
	cancel func()
	closed bool
}

// Open binds a channel between the self window and one counterpart.
// Liveness of either window is not validated here; a dead counterpart
// simply never produces or receives anything.
func Open(self, peer browser.Window, actions ...string) *Channel {
	recognized := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		recognized[a] = struct{}{}
	}
	return &Channel{self: self, peer: peer, actions: recognized}
}

// Send posts a message to the counterpart window, stamping the self
// window as its source. Best-effort: posting to a closed or navigated
// away counterpart is silently ignored.
func (c *Channel) Send(msg browser.Message) error {
	msg.Source = c.self
	return c.peer.Post(msg)
}

// Receive returns the stream of recognized messages from the counterpart.
// Listening begins lazily on the first call and stops when the channel is
// closed. A closed channel yields an immediately-drained stream.
func (c *Channel) Receive() <-chan browser.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.out == nil {
		c.out = make(chan browser.Message, 16)
		if c.closed {
			close(c.out)
			return c.out
		}

		in, cancel := c.self.Subscribe()
		c.cancel = cancel
		go c.pump(in)
	}

	return c.out
}

// pump filters the self window's inbox down to recognized counterpart
// messages. Exits when the subscription is released or the window closes.
func (c *Channel) pump(in <-chan browser.Message) {
	defer close(c.out)

	for msg := range in {
		if msg.Source != c.peer {
			continue
		}
		if _, ok := c.actions[msg.Action]; !ok {
			continue
		}

		select {
		case c.out <- msg:
		default:
			// Consumer fell behind; dropping beats blocking the inbox.
		}
	}
}

// Close releases the listener. Idempotent; safe to call any number of
// times from any goroutine.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
