// Package cors decide qué cabeceras cross-origin lleva cada endpoint.
//
// CORS gobierna si un script de otro origin puede LEER la respuesta, no si el
// request se ejecuta: eso lo deciden auth y csrf.
package cors

import (
	"net/http"
)

// EndpointClass clasifica endpoints alcanzables desde otro origin.
type EndpointClass int

const (
	// Restricted no emite ninguna cabecera: la ausencia es el control.
	Restricted EndpointClass = iota
	// Open permite la lectura desde cualquier origin (ACAO: *).
	Open
)

// String devuelve "open" o "restricted".
func (c EndpointClass) String() string {
	if c == Open {
		return "open"
	}
	return "restricted"
}

const (
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"
	HeaderMaxAge       = "Access-Control-Max-Age"
)

// HeadersFor devuelve el mapa de cabeceras para la clase. Cualquier valor
// que no sea Open se trata como Restricted.
func HeadersFor(class EndpointClass) map[string]string {
	if class == Open {
		return map[string]string{HeaderAllowOrigin: "*"}
	}
	return map[string]string{}
}

// Apply escribe las cabeceras de la clase en w.
func Apply(w http.ResponseWriter, class EndpointClass) {
	h := w.Header()
	// Vary para caches/proxies
	h.Add("Vary", "Origin")
	for k, v := range HeadersFor(class) {
		h.Set(k, v)
	}
}

// Middleware aplica la clase a todo un handler. En endpoints Open responde
// el preflight OPTIONS con 204; en Restricted el preflight sigue al handler
// sin cabeceras, y el browser lo rechaza.
func Middleware(class EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Apply(w, class)

			if class == Open && r.Method == http.MethodOptions {
				h := w.Header()
				h.Set(HeaderAllowMethods, "GET, HEAD, OPTIONS")
				h.Set(HeaderAllowHeaders, "Content-Type")
				h.Set(HeaderMaxAge, "600") // preflight cache 10 min
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
