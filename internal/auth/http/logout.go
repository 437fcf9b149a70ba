package http

import (
	"encoding/json"
	"net/http"

	"github.com/wattlesec/authd/internal/auth/service"
	"github.com/wattlesec/authd/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout. Revocation is idempotent so the
// handler answers 204 whether or not the token was live.
type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrInvalidRequest.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
