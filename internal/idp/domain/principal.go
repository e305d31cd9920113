package domain

import "time"

// PrincipalStatus is the lifecycle state of a principal record.
type PrincipalStatus string

const (
	PrincipalActive   PrincipalStatus = "active"
	PrincipalInactive PrincipalStatus = "inactive"
	PrincipalBlocked  PrincipalStatus = "blocked"
)

// Principal is a user identity. The auth lifecycle treats it as read-only
// apart from the last-authenticated timestamp and password hash updates.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string // argon2id encoded
	Status       PrincipalStatus

	LastAuthenticatedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CanAuthenticate reports whether credential checks should even be allowed
// to succeed for this principal.
func (p *Principal) CanAuthenticate() bool {
	return p.Status == PrincipalActive
}

// PrincipalSummary is the caller-visible shape of a principal, returned
// from login. The password hash never leaves the service.
type PrincipalSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Summary strips a principal down to what the login response exposes.
func (p *Principal) Summary() PrincipalSummary {
	return PrincipalSummary{ID: p.ID, Email: p.Email}
}
