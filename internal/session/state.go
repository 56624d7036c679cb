package session

import (
	"sync"

	"github.com/inkpot-dev/inkwell/internal/models"
)

// Phase is the main session lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of the session. The profile and token
// are replaced wholesale on every transition; consumers must never
// mutate them through the snapshot.
type State struct {
	Phase               Phase
	User                *models.UserProfile
	Token               *models.AccessToken
	AuthorizingProvider string
}

// Initialized reports whether the initial bootstrap has settled.
func (s State) Initialized() bool { return s.Phase == PhaseReady }

// Authenticated reports whether a live access token is held.
func (s State) Authenticated() bool { return s.Token != nil }

// Event is a session state transition input. All session mutation goes
// through [Store.Dispatch]; nothing else writes session state.
type Event interface {
	isSessionEvent()
}

// EventBootstrapStarted marks the initial session bootstrap in flight.
type EventBootstrapStarted struct{}

// EventSessionEstablished replaces the profile and token wholesale and
// moves the session to Ready(authenticated).
type EventSessionEstablished struct {
	User  *models.UserProfile
	Token *models.AccessToken
}

// EventBootstrapFailed settles the session anonymous: visitors are never
// blocked by an identity-service hiccup.
type EventBootstrapFailed struct{}

// EventAuthorizeStarted flags the provider an authorize popup flow is
// running against. Only legal from a Ready state.
type EventAuthorizeStarted struct{ Provider string }

// EventAuthorizeSettled clears the authorizing flag, whatever the flow's
// outcome was.
type EventAuthorizeSettled struct{}

// EventTokenRefreshed replaces the access token after a refresh.
type EventTokenRefreshed struct{ Token *models.AccessToken }

// EventTokenCleared drops the token; the session degrades to
// unauthenticated while the profile, if any, remains known.
type EventTokenCleared struct{}

// EventLoggedOut resets the session to Ready(anonymous).
type EventLoggedOut struct{}

func (EventBootstrapStarted) isSessionEvent()   {}
func (EventSessionEstablished) isSessionEvent() {}
func (EventBootstrapFailed) isSessionEvent()    {}
func (EventAuthorizeStarted) isSessionEvent()   {}
func (EventAuthorizeSettled) isSessionEvent()   {}
func (EventTokenRefreshed) isSessionEvent()     {}
func (EventTokenCleared) isSessionEvent()       {}
func (EventLoggedOut) isSessionEvent()          {}

// reduce is the session transition table: (state, event) → state.
func reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case EventBootstrapStarted:
		if s.Phase != PhaseUninitialized {
			return s
		}
		s.Phase = PhaseInitializing

	case EventSessionEstablished:
		s.Phase = PhaseReady
		s.User = ev.User
		s.Token = ev.Token

	case EventBootstrapFailed:
		s.Phase = PhaseReady
		s.User = nil
		s.Token = nil

	case EventAuthorizeStarted:
		if s.Phase != PhaseReady {
			return s
		}
		s.AuthorizingProvider = ev.Provider

	case EventAuthorizeSettled:
		s.AuthorizingProvider = ""

	case EventTokenRefreshed:
		s.Token = ev.Token

	case EventTokenCleared:
		s.Token = nil

	case EventLoggedOut:
		s.Phase = PhaseReady
		s.User = nil
		s.Token = nil
		s.AuthorizingProvider = ""
	}

	return s
}

// Store holds the session state and notifies subscribers on change.
//
// Consumers read snapshots; only the session [Manager] dispatches events.
type Store struct {
	mu      sync.RWMutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewStore creates a store in the Uninitialized phase.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan State)}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies an event through the reducer and notifies subscribers.
func (s *Store) Dispatch(ev Event) {
	s.mu.Lock()
	s.state = reduce(s.state, ev)
	snap := s.state
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber fell behind; it will catch up on the next change.
		}
	}
	s.mu.Unlock()
}

// Subscribe registers for state change notifications. The cancel func
// releases the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 16)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}
