package errors

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

// errorResponse controla exactamente qué campos ve el cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe el envelope JSON {code,message,detail}.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

var htmlErrorTpl = template.Must(template.New("error").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Status}} {{.Message}}</title></head>
<body>
<h1>{{.Status}}: {{.Message}}</h1>
{{if .Detail}}<p>{{.Detail}}</p>{{end}}
<p><a href="/">back</a></p>
</body></html>
`))

// WriteHTMLError es la variante para páginas del browser.
func WriteHTMLError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = htmlErrorTpl.Execute(w, struct {
		Status  int
		Message string
		Detail  string
	}{appErr.HTTPStatus, appErr.Message, appErr.Detail})
}

// WriteJSON: respuesta JSON estándar
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Respond elige el formato según la ruta: /api/* recibe JSON, el resto HTML.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	if IsAPIPath(r.URL.Path) {
		WriteError(w, err)
		return
	}
	WriteHTMLError(w, err)
}

// IsAPIPath reporta si path pertenece a la superficie JSON.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
