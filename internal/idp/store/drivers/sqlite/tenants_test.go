package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
	"github.com/aussiebroadwan/passport/internal/idp/store"
	"github.com/aussiebroadwan/passport/pkg/idx"
)

func TestTenantLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)

	tn := domain.Tenant{ID: idx.New().String(), Name: "Acme", Status: domain.TenantActive}
	require.NoError(t, s.Tenants().CreateTenant(ctx, tn))

	got, err := s.Tenants().GetTenantByID(ctx, tn.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)
	require.Equal(t, domain.TenantActive, got.Status)

	_, err = s.Tenants().GetTenantByID(ctx, "no-such-tenant")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Suspension shows up on direct lookup and through the membership join.
	p := seedPrincipal(t, s)
	require.NoError(t, s.Memberships().CreateMembership(ctx, domain.Membership{
		PrincipalID: p.ID, TenantID: tn.ID, Role: "member",
	}))

	require.NoError(t, s.Tenants().UpdateTenantStatus(ctx, tn.ID, domain.TenantSuspended))

	got, err = s.Tenants().GetTenantByID(ctx, tn.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TenantSuspended, got.Status)

	m, err := s.Memberships().GetMembership(ctx, p.ID, tn.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TenantSuspended, m.TenantStatus)
}
