package http

import (
	"errors"
	"net/http"

	"github.com/wattlesec/authd/internal/auth/service"
	"github.com/wattlesec/authd/internal/auth/store"
	"github.com/wattlesec/authd/pkg/httpx"
	"github.com/wattlesec/authd/pkg/slogx"
)

// UserInfoHandler serves GET /v1/userinfo. Sits behind the bearer middleware,
// so the subject in the context is already verified.
type UserInfoHandler struct {
	UserService *service.UserService
}

type userInfoResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		ErrServerError.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its user record.
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_token",
				"error_description": "the token subject no longer exists",
			})
			return
		}
		log.Error("userinfo lookup failed", "err", err)
		ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userInfoResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}
