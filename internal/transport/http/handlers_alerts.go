package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatewatch/internal/alert"
	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/httputil"
	"gatewatch/pkg/requestcontext"
)

// AlertService is the engine surface the alert endpoints need.
type AlertService interface {
	Alerts(ctx context.Context) ([]alert.Alert, error)
	MarkAlertRead(ctx context.Context, id uuid.UUID) error
}

// AlertHandler exposes the operator alert feed.
type AlertHandler struct {
	service AlertService
	guard   func(http.Handler) http.Handler
	logger  *slog.Logger
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(service AlertService, guard func(http.Handler) http.Handler, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{service: service, guard: guard, logger: logger}
}

// Register mounts the alert routes.
func (h *AlertHandler) Register(r chi.Router) {
	r.Get("/alerts", h.handleList)
	r.Group(func(r chi.Router) {
		r.Use(h.guard)
		r.Post("/alerts/{id}/read", h.handleMarkRead)
	})
}

func (h *AlertHandler) handleList(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, fromAlert(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *AlertHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid alert id"))
		return
	}

	if err := h.service.MarkAlertRead(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "alert marked read",
		"alert_id", id,
		"operator", requestcontext.Operator(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
