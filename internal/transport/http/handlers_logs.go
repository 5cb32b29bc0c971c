package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/roster"
	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/httputil"
)

// LogService is the engine surface the access log endpoints need.
type LogService interface {
	Logs(ctx context.Context, f accesslog.Filter) ([]accesslog.Entry, error)
}

// LogHandler exposes the access log, filterable by role, authorization
// outcome, and action via query parameters.
type LogHandler struct {
	service LogService
}

// NewLogHandler creates an access log handler.
func NewLogHandler(service LogService) *LogHandler {
	return &LogHandler{service: service}
}

// Register mounts the log routes.
func (h *LogHandler) Register(r chi.Router) {
	r.Get("/logs", h.handleList)
}

func (h *LogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := accesslog.Filter{
		Role:   roster.Role(r.URL.Query().Get("role")),
		Action: accesslog.Action(r.URL.Query().Get("action")),
	}
	if raw := r.URL.Query().Get("authorized"); raw != "" {
		authorized, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "authorized must be true or false"))
			return
		}
		filter.Authorized = &authorized
	}

	entries, err := h.service.Logs(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, fromEntry(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
