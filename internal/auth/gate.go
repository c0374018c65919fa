// Package auth decides whether a session is logged in and owns the
// login/logout state transitions.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/websecdemo/internal/csrf"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// DefaultUsername is the fixed demo identity.
const DefaultUsername = "demo"

// ErrNotAuthenticated is returned by every gated operation on a session that
// did not log in.
var ErrNotAuthenticated = errors.New("auth: not authenticated")

// Observer receives login/logout events (metrics).
type Observer interface {
	Login()
	Logout()
}

// Gate is the AuthGate. There is no password check: login is a button.
type Gate struct {
	csrf     *csrf.Manager
	username string
	obs      Observer
}

// NewGate builds a Gate. An empty username falls back to DefaultUsername.
func NewGate(m *csrf.Manager, username string, obs Observer) *Gate {
	username = strings.TrimSpace(username)
	if username == "" {
		username = DefaultUsername
	}
	if m == nil {
		m = csrf.NewManager()
	}
	return &Gate{csrf: m, username: username, obs: obs}
}

// Username returns the identity assigned on login.
func (g *Gate) Username() string { return g.username }

// RequireLocked checks an already locked state.
func RequireLocked(st *session.State) error {
	if st == nil || !st.Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireAuthenticated succeeds iff the session is logged in.
func (g *Gate) RequireAuthenticated(s *session.Session) error {
	st := s.Snapshot()
	return RequireLocked(&st)
}

// Login marks the session as authenticated and rotates its CSRF token in the
// same critical section, so a pre-login token never survives the login.
func (g *Gate) Login(ctx context.Context, s *session.Session) (string, error) {
	log := logger.From(ctx).With(logger.Component("auth"), logger.Op("Login"))

	var tok string
	err := s.Update(func(st *session.State) error {
		// Rotate first: if it fails nothing else changes.
		var err error
		tok, err = g.csrf.RotateLocked(st)
		if err != nil {
			return err
		}
		st.Authenticated = true
		st.Username = g.username
		st.LastAction = "login as " + g.username
		return nil
	})
	if err != nil {
		log.Error("login failed", logger.Err(err))
		return "", err
	}

	if g.obs != nil {
		g.obs.Login()
	}
	log.Info("session logged in", logger.Username(g.username))
	return tok, nil
}

// Logout clears the authenticated flag. The CSRF token stays: an
// unauthenticated session cannot reach token-gated mutation anyway.
func (g *Gate) Logout(ctx context.Context, s *session.Session) error {
	var was string
	_ = s.Update(func(st *session.State) error {
		was = st.Username
		st.Authenticated = false
		st.LastAction = "logout"
		return nil
	})

	if g.obs != nil {
		g.obs.Logout()
	}
	logger.From(ctx).Info("session logged out",
		logger.Component("auth"),
		logger.Op("Logout"),
		logger.Username(was),
	)
	return nil
}
