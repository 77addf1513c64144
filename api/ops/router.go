package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelasquez/freshbasket-backend/pkg/logger"
)

const dependencyPingTimeout = 3 * time.Second

// Pinger is any dependency whose health the ops surface reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the worker ops surface: /healthz pings the named
// dependencies and /metrics serves the Prometheus registry.
func NewRouter(logg *logger.Logger, gatherer prometheus.Gatherer, deps map[string]Pinger) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthz(logg, deps))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

func healthz(logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), dependencyPingTimeout)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				if logg != nil {
					logg.Error(ctx, name+" health check failed", err)
				}
				continue
			}
			checks[name] = "up"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": statusLabel(status),
			"checks": checks,
		})
	}
}

func statusLabel(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
