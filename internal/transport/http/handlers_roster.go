package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gatewatch/internal/roster"
	dErrors "gatewatch/pkg/domain-errors"
	"gatewatch/pkg/platform/httputil"
	"gatewatch/pkg/requestcontext"
)

// RosterService is the engine surface the roster endpoints need.
type RosterService interface {
	AddIdentity(ctx context.Context, identity *roster.Identity) (*roster.Identity, error)
	UpdateIdentity(ctx context.Context, identity *roster.Identity) (*roster.Identity, error)
	RemoveIdentity(ctx context.Context, id uuid.UUID) error
	Roster(ctx context.Context) ([]*roster.Identity, error)
}

// RosterHandler exposes roster administration.
type RosterHandler struct {
	service RosterService
	guard   func(http.Handler) http.Handler
	logger  *slog.Logger
}

// NewRosterHandler creates a roster handler.
func NewRosterHandler(service RosterService, guard func(http.Handler) http.Handler, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{service: service, guard: guard, logger: logger}
}

// Register mounts the roster routes. Reads are public; mutations require an
// operator token.
func (h *RosterHandler) Register(r chi.Router) {
	r.Get("/roster", h.handleList)
	r.Group(func(r chi.Router) {
		r.Use(h.guard)
		r.Post("/roster", h.handleAdd)
		r.Put("/roster/{id}", h.handleUpdate)
		r.Delete("/roster/{id}", h.handleRemove)
	})
}

func (h *RosterHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identities, err := h.service.Roster(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromIdentities(identities))
}

func (h *RosterHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, ok := httputil.Decode[identityPayload](w, r)
	if !ok {
		return
	}

	created, err := h.service.AddIdentity(ctx, payload.toIdentity())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity added",
		"identity_id", created.ID,
		"role", created.Role,
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusCreated, fromIdentity(created))
}

func (h *RosterHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	payload, ok := httputil.Decode[identityPayload](w, r)
	if !ok {
		return
	}

	identity := payload.toIdentity()
	identity.ID = id
	updated, err := h.service.UpdateIdentity(ctx, identity)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity updated",
		"identity_id", id,
		"operator", requestcontext.Operator(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, fromIdentity(updated))
}

func (h *RosterHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid identity id"))
		return
	}

	if err := h.service.RemoveIdentity(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity removed",
		"identity_id", id,
		"operator", requestcontext.Operator(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}
