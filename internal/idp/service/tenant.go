package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
	"github.com/aussiebroadwan/passport/internal/idp/store"
)

// TenantService resolves which tenants a principal may act within. It is
// consulted only during login (to list memberships) and tenant selection
// (to validate one); the refresh path trusts the session's stored binding.
type TenantService struct {
	Store store.Store
}

// ListForPrincipal returns the principal's memberships with tenant status
// joined in. Suspended tenants are included so the caller can show them
// greyed out; they just cannot be selected.
func (s *TenantService) ListForPrincipal(ctx context.Context, principalID string) ([]domain.Membership, error) {
	return s.Store.Memberships().ListMembershipsForPrincipal(ctx, principalID)
}

// Resolve validates that principalID may act within tenantID right now.
// No membership means forbidden; a suspended tenant is forbidden with a
// distinct (but still non-enumerating) reason.
func (s *TenantService) Resolve(ctx context.Context, principalID, tenantID string) (domain.Membership, error) {
	m, err := s.Store.Memberships().GetMembership(ctx, principalID, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Membership{}, ErrTenantNotAuthorized
		}
		return domain.Membership{}, err
	}

	if m.TenantStatus != domain.TenantActive {
		return domain.Membership{}, ErrTenantNotActive
	}
	return m, nil
}
