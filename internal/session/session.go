// Package session contains the session record and the process-wide store
// that owns every record.
package session

import (
	"sync"
	"time"

	"github.com/dropDatabas3/websecdemo/internal/cookie"
)

const (
	// DefaultBalance is the toy balance every new session starts with.
	DefaultBalance int64 = 10000
	// NoAction is the audit note of a session nobody acted on yet.
	NoAction = "—"
)

// State is the typed content of a session. Defaults live in NewState only.
type State struct {
	Authenticated bool
	Username      string
	Balance       int64
	CSRFToken     string
	SameSite      cookie.SameSiteMode
	LastAction    string
	CreatedAt     time.Time
}

// Defaults are the configurable parts of a fresh State.
type Defaults struct {
	Balance  int64
	SameSite cookie.SameSiteMode
}

// DefaultDefaults returns balance 10000 and SameSite=Lax.
func DefaultDefaults() Defaults {
	return Defaults{Balance: DefaultBalance, SameSite: cookie.Lax}
}

// NewState builds an unauthenticated state with the given defaults.
func NewState(d Defaults, now time.Time) State {
	if d.Balance < 0 {
		d.Balance = 0
	}
	return State{
		Authenticated: false,
		Balance:       d.Balance,
		SameSite:      d.SameSite.Normalize(),
		LastAction:    NoAction,
		CreatedAt:     now,
	}
}

// HasToken reports whether a CSRF token was issued for this state.
func (st State) HasToken() bool { return st.CSRFToken != "" }

// Session is one record in the Store. Its fields are only reachable through
// Snapshot and Update, both of which hold the per-session lock.
type Session struct {
	id string

	mu sync.Mutex
	st State
}

// ID returns the opaque identifier. It never changes.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// Update runs fn with exclusive access to the state. Concurrent requests
// carrying the same session id are serialized here.
//
// fn must decide everything (gates included) before mutating: if it returns
// an error after a partial write, that write is kept.
func (s *Session) Update(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.st)
}
