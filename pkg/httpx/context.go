package httpx

import (
	"context"

	"github.com/aussiebroadwan/passport/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyPrincipalID ctxKey = "principal_id"
	CtxKeyClaims      ctxKey = "claims"
)

// ClaimsFromContext returns the verified access-token claims injected by
// AuthnMiddleware, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// PrincipalIDFromContext returns the authenticated principal id, if any.
func PrincipalIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CtxKeyPrincipalID).(string); ok {
		return id
	}
	return ""
}
