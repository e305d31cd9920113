package sqlite

import (
	"context"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
)

type membershipsRepo struct {
	db dbtx
}

const membershipSelect = `
SELECT m.principal_id, m.tenant_id, m.role, t.name, t.status, m.created_at
FROM memberships m
JOIN tenants t ON t.id = m.tenant_id`

func (r *membershipsRepo) ListMembershipsForPrincipal(ctx context.Context, principalID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		membershipSelect+` WHERE m.principal_id = ? ORDER BY m.created_at`, principalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) GetMembership(ctx context.Context, principalID, tenantID string) (domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		membershipSelect+` WHERE m.principal_id = ? AND m.tenant_id = ?`, principalID, tenantID,
	)
	m, err := scanMembership(row)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (principal_id, tenant_id, role) VALUES (?, ?, ?)`,
		m.PrincipalID, m.TenantID, m.Role,
	)
	return mapConstraint(err)
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, principalID, tenantID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE principal_id = ? AND tenant_id = ?`, principalID, tenantID,
	)
	return err
}

func scanMembership(row rowScanner) (domain.Membership, error) {
	var (
		m      domain.Membership
		status string
	)
	err := row.Scan(&m.PrincipalID, &m.TenantID, &m.Role, &m.TenantName, &status, &m.CreatedAt)
	if err != nil {
		return domain.Membership{}, err
	}
	m.TenantStatus = domain.TenantStatus(status)
	return m, nil
}
