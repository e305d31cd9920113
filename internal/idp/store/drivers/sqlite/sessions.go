package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
	"github.com/aussiebroadwan/passport/internal/idp/store"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `id, principal_id, refresh_hash, tenant_id, role, expires_at, created_at, updated_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, principal_id, refresh_hash, tenant_id, role, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.PrincipalID, s.RefreshHash, nullString(s.TenantID), nullString(s.Role), s.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByRefreshHash(ctx context.Context, hash string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_hash = ?`, hash,
	)
	return scanSession(row)
}

// RotateSession is the compare-and-swap at the heart of refresh rotation.
// The WHERE clause only matches while the stored hash is still oldHash, so
// of two concurrent rotations exactly one updates a row; the other sees
// zero rows affected and gets ErrConflict.
func (r *sessionsRepo) RotateSession(ctx context.Context, sessionID, oldHash, newHash string, newExpiry time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET refresh_hash = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND refresh_hash = ?`,
		newHash, newExpiry.UTC(), sessionID, oldHash,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *sessionsRepo) BindSessionTenant(ctx context.Context, sessionID, tenantID, role string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET tenant_id = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullString(tenantID), nullString(role), sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) InvalidateSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (r *sessionsRepo) InvalidateAllPrincipalSessions(ctx context.Context, principalID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE principal_id = ?`, principalID)
	return err
}

func (r *sessionsRepo) ListSessionsForPrincipal(ctx context.Context, principalID string) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE principal_id = ? ORDER BY created_at`, principalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		s        domain.Session
		tenantID sql.NullString
		role     sql.NullString
	)
	err := row.Scan(&s.ID, &s.PrincipalID, &s.RefreshHash, &tenantID, &role, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.TenantID = tenantID.String
	s.Role = role.String
	return s, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
