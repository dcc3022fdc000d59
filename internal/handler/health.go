package handler

import (
	"net/http"

	"github.com/attaboy/faketoto/internal/infra"
)

// HealthHandler pings every configured dependency. With none it reports healthy.
func HealthHandler(checks map[string]infra.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "healthy"}
		results := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := infra.HealthCheck(r.Context(), p); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		RespondJSON(w, status, body)
	}
}
