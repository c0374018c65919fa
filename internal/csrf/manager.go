// Package csrf issues and validates synchronizer tokens bound to a session.
package csrf

import (
	"crypto/subtle"
	"errors"
	"fmt"

	tokens "github.com/dropDatabas3/websecdemo/internal/security/token"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// ErrInvalidToken: token ausente, vacío o distinto al de la sesión.
var ErrInvalidToken = errors.New("csrf: invalid token")

// Generator produce tokens nuevos.
type Generator func() (string, error)

// Observer recibe eventos de emisión/rotación (métricas).
type Observer interface {
	CSRFToken(op string)
}

// Manager emite y valida tokens. El token vive dentro del State de la sesión;
// nunca se compara contra otra sesión.
type Manager struct {
	gen Generator
	obs Observer
}

// Option configura un Manager.
type Option func(*Manager)

// WithGenerator reemplaza el generador crypto/rand (tests).
func WithGenerator(g Generator) Option {
	return func(m *Manager) {
		if g != nil {
			m.gen = g
		}
	}
}

// WithObserver registra un observer de métricas.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.obs = o }
}

// NewManager crea un Manager con generador crypto/rand de 128 bits.
func NewManager(opts ...Option) *Manager {
	m := &Manager{gen: tokens.Generate}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) observe(op string) {
	if m.obs != nil {
		m.obs.CSRFToken(op)
	}
}

func (m *Manager) fresh() (string, error) {
	tok, err := m.gen()
	if err != nil {
		return "", fmt.Errorf("csrf: generate token: %w", err)
	}
	if tok == "" {
		return "", errors.New("csrf: generator returned an empty token")
	}
	return tok, nil
}

// Issue devuelve el token actual o crea uno si no existe (idempotente: no
// invalida un token que una página legítima ya embebió).
func (m *Manager) Issue(s *session.Session) (string, error) {
	var tok string
	err := s.Update(func(st *session.State) error {
		var err error
		tok, err = m.IssueLocked(st)
		return err
	})
	return tok, err
}

// Rotate reemplaza incondicionalmente el token.
func (m *Manager) Rotate(s *session.Session) (string, error) {
	var tok string
	err := s.Update(func(st *session.State) error {
		var err error
		tok, err = m.RotateLocked(st)
		return err
	})
	return tok, err
}

// Validate indica si presented es exactamente el token vigente de la sesión.
func (m *Manager) Validate(s *session.Session, presented string) bool {
	return CheckLocked(s.Snapshot(), presented) == nil
}

// IssueLocked es Issue para quien ya tiene el lock de la sesión.
func (m *Manager) IssueLocked(st *session.State) (string, error) {
	if st.CSRFToken != "" {
		return st.CSRFToken, nil
	}
	tok, err := m.fresh()
	if err != nil {
		return "", err
	}
	st.CSRFToken = tok
	m.observe("issue")
	return tok, nil
}

// RotateLocked es Rotate para quien ya tiene el lock de la sesión.
func (m *Manager) RotateLocked(st *session.State) (string, error) {
	tok, err := m.fresh()
	if err != nil {
		return "", err
	}
	st.CSRFToken = tok
	m.observe("rotate")
	return tok, nil
}

// CheckLocked compara en tiempo constante; sin matches parciales ni case-folding.
func CheckLocked(st session.State, presented string) error {
	if presented == "" || st.CSRFToken == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(st.CSRFToken)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
