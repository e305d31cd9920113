package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/passport/internal/idp/service"
	"github.com/aussiebroadwan/passport/pkg/httpx"
	"github.com/aussiebroadwan/passport/pkg/slogx"
)

// TenantSelectHandler serves POST /v1/auth/tenant. Requires a valid bearer
// token; the tenant-scoped access token it returns replaces the caller's
// current one.
type TenantSelectHandler struct {
	Auth *service.AuthService
}

type tenantSelectRequest struct {
	TenantID string `json:"tenant_id"`
}

func (h *TenantSelectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.ErrInvalidToken.WriteError(w)
		return
	}

	var req tenantSelectRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.ErrInvalidRequest.WriteError(w)
		return
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	if req.TenantID == "" {
		httpx.ErrInvalidRequest.WithDescription("tenant_id is required.").WriteError(w)
		return
	}

	sel, err := h.Auth.SelectTenant(ctx, claims, req.TenantID)
	if err != nil {
		apiErr := mapServiceError(err)
		if apiErr == httpx.ErrServerError {
			log.Error("tenant selection failed", "error", err)
		}
		apiErr.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TenantSelectResponse{
		TokenResponse: tokenResponse(sel.Tokens),
		Tenant:        sel.Tenant,
		RedirectTo:    sel.RedirectTo,
	})
}
