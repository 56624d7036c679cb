package browser

import "sync"

// winCore carries the inbox and close bookkeeping shared by every
// [Window] implementation in this package.
type winCore struct {
	url string

	mu      sync.Mutex
	subs    map[int]chan Message
	nextSub int
	done    bool
	closed  chan struct{}
}

func newWinCore(url string) *winCore {
	return &winCore{
		url:    url,
		subs:   make(map[int]chan Message),
		closed: make(chan struct{}),
	}
}

func (w *winCore) URL() string { return w.url }

// Post fans the message out to all listeners. Messages posted to a closed
// window, or to a window nobody is listening on, are dropped.
func (w *winCore) Post(msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return nil
	}

	for _, ch := range w.subs {
		select {
		case ch <- msg:
		default:
			// Listener buffer full, drop rather than block the poster.
		}
	}

	return nil
}

func (w *winCore) Subscribe() (<-chan Message, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan Message, 16)
	if w.done {
		close(ch)
		return ch, func() {}
	}

	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (w *winCore) Closed() <-chan struct{} { return w.closed }

func (w *winCore) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return nil
	}
	w.done = true
	close(w.closed)

	for id, sub := range w.subs {
		delete(w.subs, id)
		close(sub)
	}

	return nil
}
