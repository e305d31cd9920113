package http

import (
	"errors"

	"github.com/aussiebroadwan/passport/internal/idp/service"
	"github.com/aussiebroadwan/passport/pkg/httpx"
)

// mapServiceError translates the service taxonomy into wire errors. Token
// failure modes all collapse into invalid_token; the audit log keeps the
// distinction.
func mapServiceError(err error) *httpx.APIError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return httpx.ErrInvalidCredentials
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrRotationConflict):
		return httpx.ErrInvalidToken
	case errors.Is(err, service.ErrTenantNotAuthorized):
		return httpx.ErrTenantNotAuthorized
	case errors.Is(err, service.ErrTenantNotActive):
		return httpx.ErrTenantNotActive
	case errors.Is(err, service.ErrPasswordReuse):
		return httpx.ErrPasswordReuse
	case errors.Is(err, service.ErrDependencyUnavailable):
		return httpx.ErrUnavailable
	default:
		return httpx.ErrServerError
	}
}
