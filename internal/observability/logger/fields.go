package logger

import (
	"go.uber.org/zap"

	tokens "github.com/dropDatabas3/websecdemo/internal/security/token"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Origin crea un campo para el header Origin (útil para ver requests cross-site).
func Origin(v string) zap.Field {
	return zap.String("origin", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SESIÓN / SEGURIDAD
// =================================================================================

// Session loguea el fingerprint del id de sesión, nunca el id.
func Session(id string) zap.Field {
	return zap.String("session", tokens.Fingerprint(id))
}

// NewSession marca si la sesión se creó en este request.
func NewSession(v bool) zap.Field {
	return zap.Bool("new_session", v)
}

// Username crea un campo para la identidad demo.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// SameSite crea un campo para el modo SameSite.
func SameSite(v string) zap.Field {
	return zap.String("samesite", v)
}

// Amount crea un campo para el monto de una transferencia.
func Amount(v int64) zap.Field {
	return zap.Int64("amount", v)
}

// Balance crea un campo para el saldo resultante.
func Balance(v int64) zap.Field {
	return zap.Int64("balance", v)
}

// Outcome crea un campo para el resultado (ok, unauthenticated, bad_csrf...).
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// Endpoint crea un campo para la clase CORS del endpoint.
func Endpoint(v string) zap.Field {
	return zap.String("endpoint", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Layer crea un campo para la capa (controller, service, ...).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Addr crea un campo para una dirección de escucha.
func Addr(v string) zap.Field {
	return zap.String("addr", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
