package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/websecdemo/internal/auth"
	"github.com/dropDatabas3/websecdemo/internal/cookie"
	"github.com/dropDatabas3/websecdemo/internal/csrf"
	"github.com/dropDatabas3/websecdemo/internal/session"
)

// AppError define la estructura estándar para errores HTTP de la demo
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // causa, sólo para logs
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// Wrap crea un AppError envolviendo un error existente
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// FromError convierte cualquier error en AppError. Los sentinels del motor
// tienen su propio mapeo; el resto es 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case stderrors.Is(err, auth.ErrNotAuthenticated):
		return ErrNotLoggedIn.WithCause(err)
	case stderrors.Is(err, csrf.ErrInvalidToken):
		return ErrBadCSRFToken.WithCause(err)
	case stderrors.Is(err, cookie.ErrNoneWithoutSecure):
		return ErrCookiePolicy.WithCause(err)
	case stderrors.Is(err, session.ErrTokenSource), stderrors.Is(err, session.ErrIDCollision):
		return ErrSessionUnavailable.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle, sin mutar los globales
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

var (
	ErrNotLoggedIn = &AppError{
		Code:       "NOT_AUTHENTICATED",
		Message:    "please log in",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrBadCSRFToken = &AppError{
		Code:       "INVALID_CSRF_TOKEN",
		Message:    "forbidden: bad token",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "method not allowed",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrTooManyRequests = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "too many requests, slow down",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrCookiePolicy = &AppError{
		Code:       "COOKIE_POLICY",
		Message:    "cookie attributes rejected",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrSessionUnavailable = &AppError{
		Code:       "SESSION_UNAVAILABLE",
		Message:    "could not establish a session",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
)
