package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"gatewatch/internal/engine"
	"gatewatch/pkg/platform/httputil"
	"gatewatch/pkg/requestcontext"
)

// MonitorEngine is the engine surface the monitoring endpoints need.
type MonitorEngine interface {
	ProcessTick(ctx context.Context, location string, detections []engine.Detection) (engine.TickResult, error)
	StartMonitoring(ctx context.Context, interval time.Duration)
	StopMonitoring()
	Monitoring() bool
}

// MonitorHandler exposes tick ingest and the detection schedule lifecycle.
type MonitorHandler struct {
	engine   MonitorEngine
	runCtx   context.Context // outlives requests; owns the simulated feed
	interval time.Duration
	guard    func(http.Handler) http.Handler
	logger   *slog.Logger
}

// NewMonitorHandler creates a monitoring handler. runCtx must be the process
// lifetime context, not a request context, or the schedule dies with the
// request that started it.
func NewMonitorHandler(eng MonitorEngine, runCtx context.Context, interval time.Duration, guard func(http.Handler) http.Handler, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{engine: eng, runCtx: runCtx, interval: interval, guard: guard, logger: logger}
}

// Register mounts the monitoring routes.
func (h *MonitorHandler) Register(r chi.Router) {
	r.Get("/monitor/status", h.handleStatus)
	r.Group(func(r chi.Router) {
		r.Use(h.guard)
		r.Post("/monitor/detections", h.handleDetections)
		r.Post("/monitor/start", h.handleStart)
		r.Post("/monitor/stop", h.handleStop)
	})
}

// handleDetections ingests one frame's detections and returns the verdicts.
func (h *MonitorHandler) handleDetections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[tickRequest](w, r)
	if !ok {
		return
	}

	result, err := h.engine.ProcessTick(ctx, req.Location, req.toDetections())
	if err != nil {
		h.logger.ErrorContext(ctx, "detection tick failed",
			"request_id", requestcontext.RequestID(ctx),
			"detections", len(req.Detections),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromTickResult(result))
}

func (h *MonitorHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.engine.StartMonitoring(h.runCtx, h.interval)
	h.logger.InfoContext(r.Context(), "monitoring started",
		"operator", requestcontext.Operator(r.Context()),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"monitoring": true})
}

func (h *MonitorHandler) handleStop(w http.ResponseWriter, r *http.Request) {
	h.engine.StopMonitoring()
	h.logger.InfoContext(r.Context(), "monitoring stopped",
		"operator", requestcontext.Operator(r.Context()),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"monitoring": false})
}

func (h *MonitorHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"monitoring": h.engine.Monitoring()})
}
