package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatewatch/internal/visitor"
	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/httputil"
	"gatewatch/pkg/requestcontext"
)

// VisitorService is the engine surface the visitor endpoints need.
type VisitorService interface {
	RegisterVisitor(ctx context.Context, name, requestedBy string) (visitor.Request, error)
	VisitorRequests(ctx context.Context) []visitor.Request
	ApproveVisitor(ctx context.Context, requestID uuid.UUID) (visitor.Grant, error)
	RejectVisitor(ctx context.Context, requestID uuid.UUID) (visitor.Request, error)
	Grants(ctx context.Context) ([]visitor.Grant, error)
}

// VisitorHandler exposes the visitor registration and approval flow.
// Registration is public (the gate kiosk submits it); review actions require
// an operator token.
type VisitorHandler struct {
	service VisitorService
	guard   func(http.Handler) http.Handler
	logger  *slog.Logger
}

// NewVisitorHandler creates a visitor handler.
func NewVisitorHandler(service VisitorService, guard func(http.Handler) http.Handler, logger *slog.Logger) *VisitorHandler {
	return &VisitorHandler{service: service, guard: guard, logger: logger}
}

// Register mounts the visitor routes.
func (h *VisitorHandler) Register(r chi.Router) {
	r.Post("/visitors/register", h.handleRegister)
	r.Get("/visitors/grants", h.handleGrants)
	r.Group(func(r chi.Router) {
		r.Use(h.guard)
		r.Get("/visitors/requests", h.handleRequests)
		r.Post("/visitors/requests/{id}/approve", h.handleApprove)
		r.Post("/visitors/requests/{id}/reject", h.handleReject)
	})
}

func (h *VisitorHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, ok := httputil.Decode[registerVisitorRequest](w, r)
	if !ok {
		return
	}

	req, err := h.service.RegisterVisitor(ctx, payload.Name, payload.RequestedBy)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "visitor request queued",
		"request_id", requestcontext.RequestID(ctx),
		"visitor_request_id", req.ID,
	)
	httputil.WriteJSON(w, http.StatusAccepted, fromVisitorRequest(req))
}

func (h *VisitorHandler) handleRequests(w http.ResponseWriter, r *http.Request) {
	requests := h.service.VisitorRequests(r.Context())
	out := make([]visitorRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, fromVisitorRequest(req))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *VisitorHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}

	grant, err := h.service.ApproveVisitor(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "visitor approved",
		"visitor_request_id", id,
		"subject_id", grant.SubjectID,
		"expiry", grant.Expiry,
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, fromGrant(grant))
}

func (h *VisitorHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}

	req, err := h.service.RejectVisitor(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "visitor rejected",
		"visitor_request_id", id,
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, fromVisitorRequest(req))
}

func (h *VisitorHandler) handleGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.service.Grants(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, fromGrant(g))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
