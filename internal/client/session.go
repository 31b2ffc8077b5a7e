package client

import (
	"sync"
	"time"
)

type EventKind int

const (
	LoggedIn EventKind = iota + 1
	Refreshed
	Updated
	LoggedOut
)

func (k EventKind) String() string {
	switch k {
	case LoggedIn:
		return "LoggedIn"
	case Refreshed:
		return "Refreshed"
	case Updated:
		return "Updated"
	case LoggedOut:
		return "LoggedOut"
	}
	return "Unknown"
}

// Event announces a change of the current account. Account is nil for
// LoggedOut.
type Event struct {
	Kind    EventKind
	Account *Account
}

type Account struct {
	ID         uint       `json:"id"`
	Title      string     `json:"title"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Created    time.Time  `json:"created"`
	Updated    *time.Time `json:"updated,omitempty"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
	JwtToken   string     `json:"jwtToken,omitempty"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == "Admin"
}

const subscriberBuffer = 16

// Session holds the logged-in account and fans out changes to subscribers.
// A subscriber that falls subscriberBuffer events behind misses events.
type Session struct {
	mu      sync.RWMutex
	account *Account
	subs    map[<-chan Event]chan Event
}

func NewSession() *Session {
	return &Session{subs: make(map[<-chan Event]chan Event)}
}

// Current returns a copy of the logged-in account, or nil.
func (s *Session) Current() *Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	acc := *s.account
	return &acc
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return ""
	}
	return s.account.JwtToken
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = ch
	s.mu.Unlock()
	return ch
}

func (s *Session) Unsubscribe(ch <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(c)
	}
}

func (s *Session) set(kind EventKind, acc *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = acc
	s.publish(kind)
}

// merge replaces the profile fields of the current account when it has the
// same id, keeping its token.
func (s *Session) merge(acc *Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil || s.account.ID != acc.ID {
		return false
	}
	merged := *acc
	merged.JwtToken = s.account.JwtToken
	s.account = &merged
	s.publish(Updated)
	return true
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return
	}
	s.account = nil
	s.publish(LoggedOut)
}

// publish must be called with mu held.
func (s *Session) publish(kind EventKind) {
	ev := Event{Kind: kind}
	if s.account != nil {
		acc := *s.account
		ev.Account = &acc
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
