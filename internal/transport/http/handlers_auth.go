package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatewatch/pkg/platform/httputil"
	"gatewatch/pkg/requestcontext"
)

// LoginService authenticates an operator and returns an access token.
type LoginService interface {
	Login(ctx context.Context, name, password string) (string, error)
}

// AuthHandler exposes operator login.
type AuthHandler struct {
	service LoginService
	logger  *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// Register mounts the auth routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, ok := httputil.Decode[loginRequest](w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(ctx, payload.Operator, payload.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestcontext.RequestID(ctx),
			"operator", payload.Operator,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: token})
}
