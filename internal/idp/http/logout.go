package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/passport/internal/idp/service"
	"github.com/aussiebroadwan/passport/pkg/httpx"
	"github.com/aussiebroadwan/passport/pkg/jwtx"
	"github.com/aussiebroadwan/passport/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout. It does not sit behind the
// authn middleware: a client holding only a refresh token must still be
// able to log out. A bearer token, when presented, is revoked as well.
type LogoutHandler struct {
	Auth  *service.AuthService
	Codec *jwtx.Codec
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req logoutRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		httpx.ErrInvalidRequest.WithDescription("refresh_token is required.").WriteError(w)
		return
	}

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		apiErr := mapServiceError(err)
		if apiErr == httpx.ErrServerError {
			log.Error("logout failed", "error", err)
		}
		apiErr.WriteError(w)
		return
	}

	// Best effort on the access token; an invalid or absent bearer does
	// not undo the logout that already happened.
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
		if claims, err := h.Codec.Verify(raw); err == nil {
			if err := h.Auth.RevokeAccessToken(ctx, claims); err != nil {
				log.Warn("access token revocation on logout failed", "error", err)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
