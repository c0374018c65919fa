// Package cookie decide qué atributos lleva cada Set-Cookie emitido por la app.
//
// La política es una función pura: un modo SameSite entra, un conjunto
// canónico de atributos sale. HttpOnly va siempre; Secure va siempre con
// SameSite=None, aunque la demo corra sobre HTTP plano.
package cookie

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoneWithoutSecure se devuelve al intentar emitir SameSite=None sin Secure.
var ErrNoneWithoutSecure = errors.New("cookie: SameSite=None requires Secure")

// SameSiteMode es el enum cerrado de modos SameSite. El zero value es Lax.
type SameSiteMode int

const (
	Lax SameSiteMode = iota
	Strict
	None
)

// Modes lista los modos válidos en orden de presentación.
func Modes() []SameSiteMode { return []SameSiteMode{Lax, Strict, None} }

// ParseSameSiteMode normaliza la entrada del usuario ("lax", " STRICT ", ...).
// Un valor desconocido NO es error: cae silenciosamente a Lax.
func ParseSameSiteMode(s string) SameSiteMode {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "strict":
		return Strict
	case "none":
		return None
	default:
		return Lax
	}
}

// Normalize devuelve m si es un valor válido del enum, o Lax.
func (m SameSiteMode) Normalize() SameSiteMode {
	switch m {
	case Lax, Strict, None:
		return m
	default:
		return Lax
	}
}

// String devuelve el valor literal usado en el header (Lax|Strict|None).
func (m SameSiteMode) String() string {
	switch m.Normalize() {
	case Strict:
		return "Strict"
	case None:
		return "None"
	default:
		return "Lax"
	}
}

// Param devuelve el valor en minúsculas usado en query strings (?mode=lax).
func (m SameSiteMode) Param() string { return strings.ToLower(m.String()) }

// HTTP mapea el modo a http.SameSite.
func (m SameSiteMode) HTTP() http.SameSite {
	switch m.Normalize() {
	case Strict:
		return http.SameSiteStrictMode
	case None:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Attributes son los flags que acompañan a name=value.
type Attributes struct {
	Path     string
	HTTPOnly bool
	SameSite SameSiteMode
	Secure   bool
}

// AttributesFor es la política: modo → atributos canónicos.
//
//	Lax    → HttpOnly; SameSite=Lax
//	Strict → HttpOnly; SameSite=Strict
//	None   → HttpOnly; SameSite=None; Secure
func AttributesFor(mode SameSiteMode) Attributes {
	mode = mode.Normalize()
	return Attributes{
		Path:     "/",
		HTTPOnly: true,
		SameSite: mode,
		Secure:   mode == None,
	}
}

// Descriptor es un Set-Cookie derivado, nunca almacenado.
type Descriptor struct {
	Name  string
	Value string
	Attributes
}

// NewDescriptor arma un descriptor aplicando AttributesFor(mode).
func NewDescriptor(name, value string, mode SameSiteMode) Descriptor {
	return Descriptor{Name: name, Value: value, Attributes: AttributesFor(mode)}
}

// Validate chequea el invariante SameSite=None ⇒ Secure.
func (d Descriptor) Validate() error {
	if d.SameSite == None && !d.Secure {
		return ErrNoneWithoutSecure
	}
	return nil
}

// String serializa con la sintaxis literal
// name=value; Path=/; HttpOnly; SameSite=<mode>[; Secure]
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('=')
	b.WriteString(d.Value)
	path := d.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; Path=")
	b.WriteString(path)
	if d.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	b.WriteString("; SameSite=")
	b.WriteString(d.SameSite.String())
	if d.Secure {
		b.WriteString("; Secure")
	}
	return b.String()
}

// Write agrega el header Set-Cookie. Se niega a emitir descriptores inválidos.
func Write(w http.ResponseWriter, d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	w.Header().Add("Set-Cookie", d.String())
	return nil
}
