package domain

import "time"

// Session links a principal to its currently valid refresh credential.
// Only the SHA-256 fingerprint of the refresh token is stored; the raw
// value is handed to the client once at issue time and never persisted.
//
// Invariant: at most one currently-valid refresh hash exists per session.
// Rotation swaps the hash under a compare-and-swap, so a stale raw token
// can no longer resolve to any live session.
type Session struct {
	ID          string
	PrincipalID string
	RefreshHash string

	// TenantID/Role bind the session to a tenant after selection, so
	// refreshed access tokens keep their tenant claims. Empty until the
	// principal picks a tenant.
	TenantID string
	Role     string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session has outlived its refresh window.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
