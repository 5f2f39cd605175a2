package web

import (
	"net/http"

	"github.com/aqagent/aqagent/internal/health"
)

type healthResponse struct {
	Status     health.Status            `json:"status"`
	Components []health.ComponentHealth `json:"components,omitempty"`
}

// handleHealthz serves GET /healthz. ?detailed=1 includes a per-component
// breakdown; otherwise only the overall status is reported.
func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") != ""
	status, breakdown := h.health.CheckHealth(detailed)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{Status: status, Components: breakdown})
}
