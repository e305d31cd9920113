package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a failed compare-and-swap: the stored refresh
	// hash no longer matches what the caller presented. Concurrent or
	// replayed rotations surface here instead of silently overwriting.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories keep concerns tidy and make
// test doubles per-area rather than one giant mock.
type Store interface {
	Principals() Principals
	Tenants() Tenants
	Memberships() Memberships
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn errors
	// and committing otherwise. Preferred over Tx for multi-step writes.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetPrincipalByEmail is the login lookup. Emails are stored lowercased.
	GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error)

	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal (id is provided by app via ULID).
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// UpdateLastAuthenticated records a successful login.
	UpdateLastAuthenticated(ctx context.Context, principalID string, at time.Time) error

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, principalID string, newHash string) error
}

type Tenants interface {
	GetTenantByID(ctx context.Context, id string) (domain.Tenant, error)
	CreateTenant(ctx context.Context, t domain.Tenant) error
	UpdateTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) error
}

type Memberships interface {
	// ListMembershipsForPrincipal returns the tenants a principal may act
	// within, with tenant name and status joined in.
	ListMembershipsForPrincipal(ctx context.Context, principalID string) ([]domain.Membership, error)

	// GetMembership is the tenant-selection lookup.
	GetMembership(ctx context.Context, principalID, tenantID string) (domain.Membership, error)

	CreateMembership(ctx context.Context, m domain.Membership) error
	DeleteMembership(ctx context.Context, principalID, tenantID string) error
}

type Sessions interface {
	// CreateSession persists a freshly minted login session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByRefreshHash resolves a presented refresh token by its
	// fingerprint. An already-rotated token's hash matches nothing.
	GetSessionByRefreshHash(ctx context.Context, hash string) (domain.Session, error)

	// RotateSession swaps the refresh hash under CAS semantics: it succeeds
	// only while the stored hash still equals oldHash, otherwise it returns
	// ErrConflict and changes nothing. This is what makes two concurrent
	// exchanges of the same raw token resolve to exactly one winner.
	RotateSession(ctx context.Context, sessionID, oldHash, newHash string, newExpiry time.Time) error

	// BindSessionTenant records tenant selection so refreshed access tokens
	// keep their tenant claims. The refresh hash is untouched.
	BindSessionTenant(ctx context.Context, sessionID, tenantID, role string) error

	// InvalidateSession deletes a session. Deleting an absent session is
	// not an error; logout is idempotent.
	InvalidateSession(ctx context.Context, sessionID string) error

	// InvalidateAllPrincipalSessions deletes every session of a principal
	// (password-change policy "all").
	InvalidateAllPrincipalSessions(ctx context.Context, principalID string) error

	// ListSessionsForPrincipal returns the live sessions of a principal,
	// used to blacklist their refresh fingerprints on password change.
	ListSessionsForPrincipal(ctx context.Context, principalID string) ([]domain.Session, error)

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}
