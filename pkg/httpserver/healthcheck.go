package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/botfleet/pkg/logger"
)

// Check is a named readiness dependency.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheckHandler reports liveness when no checks are given and readiness
// otherwise. Every check runs on each request; any failure yields 503.
func HealthCheckHandler(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		report := healthReport{Status: "alive"}
		status := http.StatusOK

		if len(checks) > 0 {
			report.Status = "ready"
			report.Checks = make(map[string]string, len(checks))
			for _, c := range checks {
				if err := c.Fn(r.Context()); err != nil {
					log.ErrorContext(r.Context(), "readiness check failed", slog.String("check", c.Name), logger.Error(err))
					report.Checks[c.Name] = "failing"
					report.Status = "not_ready"
					status = http.StatusServiceUnavailable
					continue
				}
				report.Checks[c.Name] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
