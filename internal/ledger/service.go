package ledger

import (
	"context"
	"errors"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// Outcome labels used in logs and metrics.
const (
	OutcomeOK              = "ok"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeBadCSRF         = "bad_csrf"
)

// Observer receives one event per transfer attempt (metrics).
type Observer interface {
	Transfer(path, outcome string)
}

// Service applies transfers behind the gates of each call site. Gates run
// to completion inside the session lock before the balance is touched.
type Service struct {
	limits Limits
	obs    Observer
}

// NewService builds a Service. Zero limits mean DefaultLimits.
func NewService(lim Limits, obs Observer) *Service {
	if lim == (Limits{}) {
		lim = DefaultLimits()
	}
	return &Service{limits: lim.normalized(), obs: obs}
}

// Limits returns the effective limits.
func (s *Service) Limits() Limits { return s.limits }

// TransferVulnerable is the deliberately insecure path: only login is
// checked, no CSRF proof. Any page on any origin can trigger it.
func (s *Service) TransferVulnerable(ctx context.Context, sess *session.Session, raw string, path Path) (Receipt, error) {
	if path != PathVulnerableGET && path != PathVulnerablePOST {
		path = PathVulnerablePOST
	}
	return s.transfer(ctx, sess, raw, path, func(st *session.State) error {
		return auth.RequireLocked(st)
	})
}

// TransferProtected requires login and a valid CSRF token.
func (s *Service) TransferProtected(ctx context.Context, sess *session.Session, raw, token string) (Receipt, error) {
	return s.transfer(ctx, sess, raw, PathProtectedPOST, func(st *session.State) error {
		if err := auth.RequireLocked(st); err != nil {
			return err
		}
		return csrf.CheckLocked(*st, token)
	})
}

func (s *Service) transfer(ctx context.Context, sess *session.Session, raw string, path Path, gate func(*session.State) error) (Receipt, error) {
	log := logger.From(ctx).With(logger.Component("ledger"), logger.Op(string(path)))

	var rc Receipt
	err := sess.Update(func(st *session.State) error {
		if err := gate(st); err != nil {
			return err
		}
		rc = Apply(st, raw, s.limits, path)
		return nil
	})

	outcome := outcomeOf(err)
	if s.obs != nil {
		s.obs.Transfer(string(path), outcome)
	}
	if err != nil {
		log.Warn("transfer rejected", logger.Outcome(outcome))
		return Receipt{Path: path, Raw: raw}, err
	}

	log.Info("transfer applied",
		logger.Outcome(outcome),
		logger.Amount(rc.Amount),
		logger.Balance(rc.After),
		logger.Bool("defaulted", rc.Defaulted),
	)
	return rc, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, auth.ErrNotAuthenticated):
		return OutcomeUnauthenticated
	case errors.Is(err, csrf.ErrInvalidToken):
		return OutcomeBadCSRF
	default:
		return "error"
	}
}
