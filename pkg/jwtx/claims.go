package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminator values carried in the "typ" claim.
const (
	TypeAccess = "access"
)

// Claims are the access-token claims. Tenant context is optional: a token
// minted at login has no tenant claim, one minted by tenant selection or a
// refresh of a tenant-bound session does.
type Claims struct {
	jwt.RegisteredClaims

	// Type discriminates access tokens from anything else that might be
	// presented on the wire. Authorization decisions must check it.
	Type string `json:"typ"`

	// SID names the login session the token was minted under, so tenant
	// selection and password change can act on the caller's own session.
	SID string `json:"sid,omitempty"`

	// TenantID the token is scoped to, empty until tenant selection.
	TenantID string `json:"tenant_id,omitempty"`

	// Role of the subject within TenantID, empty without tenant context.
	Role string `json:"role,omitempty"`
}

// NewAccessClaims builds minimally-correct access-token claims.
func NewAccessClaims(
	subject, sid, tenantID, role string,
	ttl time.Duration,
	issuer, audience string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Type:     TypeAccess,
		SID:      sid,
		TenantID: tenantID,
		Role:     role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

func (c *Claims) validateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

func (c *Claims) validateAudience(expected string) error {
	if expected == "" {
		return nil
	}
	if !slices.Contains(c.Audience, expected) {
		return ErrAudience
	}
	return nil
}

// validateExpiry checks exp and nbf with a little leeway for clock skew.
func (c *Claims) validateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
