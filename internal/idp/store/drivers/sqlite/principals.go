package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
)

type principalsRepo struct {
	db dbtx
}

const principalColumns = `id, email, password_hash, status, last_authenticated_at, created_at, updated_at`

func (r *principalsRepo) GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = ?`, id,
	)
	return scanPrincipal(row)
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO principals (id, email, password_hash, status, last_authenticated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID,
		strings.ToLower(strings.TrimSpace(p.Email)),
		p.PasswordHash,
		string(p.Status),
		mapTimeNull(p.LastAuthenticatedAt),
	)
	return mapConstraint(err)
}

func (r *principalsRepo) UpdateLastAuthenticated(ctx context.Context, principalID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE principals SET last_authenticated_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(), principalID,
	)
	return err
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, principalID string, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE principals SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, principalID,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (domain.Principal, error) {
	var (
		p        domain.Principal
		status   string
		lastAuth sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &status, &lastAuth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	p.Status = domain.PrincipalStatus(status)
	p.LastAuthenticatedAt = mapNullTime(lastAuth)
	return p, nil
}
