// Package identity tracks who the current user is.
package identity

import "sync"

// Session is a mutable sign-in state with change notification.
type Session struct {
	mu     sync.Mutex
	uid    string
	nextID int
	subs   map[int]func(prev, next string)
}

// NewSession returns a signed-out session.
func NewSession() *Session {
	return &Session{subs: map[int]func(prev, next string){}}
}

// Current returns the signed-in user id, "" when signed out.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// SignIn switches to uid. Subscribers are only called on an actual change.
func (s *Session) SignIn(uid string) { s.set(uid) }

// SignOut clears the identity.
func (s *Session) SignOut() { s.set("") }

func (s *Session) set(uid string) {
	s.mu.Lock()
	prev := s.uid
	if prev == uid {
		s.mu.Unlock()
		return
	}
	s.uid = uid
	subs := make([]func(prev, next string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(prev, uid)
	}
}

// Subscribe registers fn for identity changes.
func (s *Session) Subscribe(fn func(prev, next string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Static is an identity that never changes.
type Static string

// Current returns the fixed id.
func (s Static) Current() string { return string(s) }

// Subscribe never calls fn.
func (Static) Subscribe(func(prev, next string)) func() { return func() {} }
