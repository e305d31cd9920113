package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/passport/internal/idp/service"
	"github.com/aussiebroadwan/passport/pkg/httpx"
	"github.com/aussiebroadwan/passport/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	Auth *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.ErrInvalidRequest.WithDescription("email and password are required.").WriteError(w)
		return
	}

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		apiErr := mapServiceError(err)
		if apiErr == httpx.ErrServerError {
			log.Error("login failed", "error", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		TokenResponse: tokenResponse(res.Tokens),
		Principal:     res.Principal,
		Tenants:       res.Memberships,
	})
}
