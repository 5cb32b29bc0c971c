// Package httptransport is the thin HTTP layer over the engine. Handlers
// decode, delegate, and encode; decision logic stays in the domain packages.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatewatch/pkg/platform/middleware/requestid"
	"gatewatch/pkg/platform/middleware/requesttime"
)

// Registerer mounts a handler's routes on a router.
type Registerer interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker func() error

// NewRouter wires middleware and all handlers. Read endpoints are public;
// each handler guards its own mutations with the operator middleware.
func NewRouter(logger *slog.Logger, health HealthChecker, handlers ...Registerer) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				logger.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
