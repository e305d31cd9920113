package service

import "errors"

// Error taxonomy of the auth lifecycle. Only ErrDependencyUnavailable is
// retryable by the caller; everything else is terminal for that request.
//
// Account-status failures are deliberately folded into ErrInvalidCredentials
// before they leave this package: a blocked account and a wrong password
// look identical to the caller, and only the audit log knows which it was.
var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrTenantNotAuthorized = errors.New("tenant_not_authorized")
	ErrTenantNotActive     = errors.New("tenant_not_active")
	ErrSessionNotFound     = errors.New("session_not_found")
	ErrTokenRevoked        = errors.New("token_revoked")
	ErrTokenExpired        = errors.New("token_expired")
	ErrRotationConflict    = errors.New("rotation_conflict")
	ErrPasswordReuse       = errors.New("password_reuse")

	// ErrDependencyUnavailable wraps store/cache outages and timeouts.
	// The HTTP boundary maps it to a 503-class response; it must never be
	// treated as success or failure of the check it interrupted.
	ErrDependencyUnavailable = errors.New("dependency_unavailable")
)
