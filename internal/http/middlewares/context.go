package middlewares

import (
	"context"

	"github.com/dropDatabas3/websecdemo/internal/session"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxSessionKey   ctxKey = "session"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// WithSessionContext inyecta la sesión resuelta. Exportado para tests de handlers.
func WithSessionContext(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, ctxSessionKey, s)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetSession obtiene la sesión del request. nil si WithSession no corrió.
func GetSession(ctx context.Context) *session.Session {
	if v := ctx.Value(ctxSessionKey); v != nil {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// MustGetSession hace panic si no hay sesión; sólo para rutas bajo WithSession.
func MustGetSession(ctx context.Context) *session.Session {
	s := GetSession(ctx)
	if s == nil {
		panic("middlewares: no session in context")
	}
	return s
}
