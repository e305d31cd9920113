package domain

import "time"

// TenantStatus is the lifecycle state of a tenant organisation.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

// Tenant is an isolated customer context principals may act within.
type Tenant struct {
	ID        string
	Name      string
	Status    TenantStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantSummary is the caller-visible shape of a tenant.
type TenantSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (t *Tenant) Summary() TenantSummary {
	return TenantSummary{ID: t.ID, Name: t.Name, Status: string(t.Status)}
}

// Membership relates a principal to a tenant with a role. It is read-only
// input to login and tenant selection; the lifecycle never mutates it.
// TenantName and TenantStatus are denormalised from the tenant row so a
// single lookup answers both "may they?" and "is the tenant alive?".
type Membership struct {
	PrincipalID  string
	TenantID     string
	Role         string
	TenantName   string
	TenantStatus TenantStatus
	CreatedAt    time.Time
}

// MembershipSummary is the per-tenant entry of the login response.
type MembershipSummary struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Role       string `json:"role"`
}

func (m *Membership) Summary() MembershipSummary {
	return MembershipSummary{TenantID: m.TenantID, TenantName: m.TenantName, Role: m.Role}
}
