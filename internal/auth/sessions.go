package auth

import (
	"context"
	"sync"
)

type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event reports a session change.
type Event struct {
	Kind    EventKind
	Session Session
}

// Sessions fronts an Identity and tells subscribers when somebody signs in
// or out. Listeners run synchronously, in subscription order, after the
// identity call succeeded.
type Sessions struct {
	identity Identity

	mu        sync.Mutex
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(Event)
}

func NewSessions(identity Identity) *Sessions {
	return &Sessions{identity: identity}
}

// Subscribe registers fn and returns the function that removes it again.
// Calling the returned function more than once is harmless.
func (s *Sessions) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Sessions) notify(evt Event) {
	s.mu.Lock()
	snapshot := make([]listener, len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(evt)
	}
}

func (s *Sessions) SignUp(ctx context.Context, email, password string) (Session, error) {
	sess, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	s.notify(Event{Kind: SignedIn, Session: sess})
	return sess, nil
}

func (s *Sessions) SignIn(ctx context.Context, email, password string) (Session, error) {
	sess, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	s.notify(Event{Kind: SignedIn, Session: sess})
	return sess, nil
}

// SignOut ends the session behind token. Subscribers hear about it even
// when the provider call fails, so per-user state is never kept for a
// user who asked to leave.
func (s *Sessions) SignOut(ctx context.Context, token string) error {
	sess, _ := s.identity.Session(ctx, token)
	err := s.identity.SignOut(ctx, token)
	if sess.UserID != "" {
		s.notify(Event{Kind: SignedOut, Session: sess})
	}
	return err
}

// Current returns the session behind token, if it is still valid.
func (s *Sessions) Current(ctx context.Context, token string) (Session, error) {
	return s.identity.Session(ctx, token)
}
