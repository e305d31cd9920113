package sqlite

import (
	"context"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
)

type tenantsRepo struct {
	db dbtx
}

func (r *tenantsRepo) GetTenantByID(ctx context.Context, id string) (domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at, updated_at FROM tenants WHERE id = ?`, id,
	)

	var (
		t      domain.Tenant
		status string
	)
	if err := row.Scan(&t.ID, &t.Name, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Tenant{}, mapNotFound(err)
	}
	t.Status = domain.TenantStatus(status)
	return t, nil
}

func (r *tenantsRepo) CreateTenant(ctx context.Context, t domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, status) VALUES (?, ?, ?)`,
		t.ID, t.Name, string(t.Status),
	)
	return mapConstraint(err)
}

func (r *tenantsRepo) UpdateTenantStatus(ctx context.Context, tenantID string, status domain.TenantStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), tenantID,
	)
	return err
}
