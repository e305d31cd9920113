package http

import (
	"net/http"

	"github.com/aussiebroadwan/passport/internal/idp/service"
	"github.com/aussiebroadwan/passport/pkg/httpx"
	"github.com/aussiebroadwan/passport/pkg/slogx"
)

// minPasswordLength is a floor, not a policy engine. Entropy rules beyond
// length belong to the clients and their password managers.
const minPasswordLength = 10

// PasswordChangeHandler serves POST /v1/auth/password. Requires a valid
// bearer token and re-proof of the current password.
type PasswordChangeHandler struct {
	Auth *service.AuthService
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *PasswordChangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	var req passwordChangeRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.ErrInvalidRequest.WithDescription("current_password and new_password are required.").WriteError(w)
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httpx.ErrInvalidRequest.WithDescription("new_password is too short.").WriteError(w)
		return
	}

	if err := h.Auth.ChangePassword(ctx, claims, req.CurrentPassword, req.NewPassword); err != nil {
		apiErr := mapServiceError(err)
		if apiErr == httpx.ErrServerError {
			log.Error("password change failed", "error", err)
		}
		apiErr.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
