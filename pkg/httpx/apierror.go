package httpx

import (
	"fmt"
	"net/http"
)

// API error codes returned in the "error" field of failure responses.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeInvalidToken        = "invalid_token"
	ErrorCodeTenantNotAuthorized = "tenant_not_authorized"
	ErrorCodeTenantNotActive     = "tenant_not_active"
	ErrorCodePasswordReuse       = "password_reuse"
	ErrorCodeRateLimited         = "rate_limit_exceeded"
	ErrorCodeServerError         = "server_error"
	ErrorCodeUnavailable         = "temporarily_unavailable"
)

// APIError is the wire shape of every failure response. It implements the
// error interface so handlers can pass one around like any other error.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// WithDescription returns a copy with a more specific description.
func (e *APIError) WithDescription(desc string) *APIError {
	c := *e
	c.Description = desc
	return &c
}

var (
	// ErrInvalidRequest covers malformed bodies and missing parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "The request is missing a required parameter or is malformed.",
	}

	// ErrInvalidCredentials is the single answer to every failed login,
	// whatever actually went wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "The provided credentials are invalid.",
	}

	// ErrInvalidToken covers expired, revoked, rotated, forged and unknown
	// tokens alike. Failure modes are deliberately not distinguished.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "The provided token is invalid or expired.",
	}

	// ErrTenantNotAuthorized rejects tenant selection without membership.
	ErrTenantNotAuthorized = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeTenantNotAuthorized,
		Description: "The authenticated principal is not a member of the requested tenant.",
	}

	// ErrTenantNotActive rejects tenant selection into a suspended tenant.
	ErrTenantNotActive = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeTenantNotActive,
		Description: "The requested tenant is not currently active.",
	}

	// ErrPasswordReuse rejects setting the password to its current value.
	ErrPasswordReuse = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodePasswordReuse,
		Description: "The new password must differ from the current password.",
	}

	// ErrServerError is the generic 500.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "An unexpected error occurred.",
	}

	// ErrUnavailable reports a degraded dependency; retryable.
	ErrUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "The service is temporarily unable to process the request.",
	}
)
