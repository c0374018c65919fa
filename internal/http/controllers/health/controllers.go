// Package health expone el health check de ambos origins.
package health

import (
	"net/http"

	httperrors "github.com/dropDatabas3/websecdemo/internal/http/errors"
)

// HealthController responde /healthz.
type HealthController struct {
	sessions func() int
}

// NewHealthController crea el controller; sessions puede ser nil (origin evil).
func NewHealthController(sessions func() int) *HealthController {
	return &HealthController{sessions: sessions}
}

// Healthz es liveness: el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if c.sessions != nil {
		body["sessions"] = c.sessions()
	}
	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, http.StatusOK, body)
}
