package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
	"github.com/aussiebroadwan/passport/internal/idp/revocation"
	"github.com/aussiebroadwan/passport/internal/idp/store"
	"github.com/aussiebroadwan/passport/pkg/cryptox"
	"github.com/aussiebroadwan/passport/pkg/idx"
	"github.com/aussiebroadwan/passport/pkg/jwtx"
	"github.com/aussiebroadwan/passport/pkg/slogx"
)

// PasswordChangeScope selects which sessions survive a password change.
type PasswordChangeScope string

const (
	// ScopeAll invalidates every session of the principal. Default.
	ScopeAll PasswordChangeScope = "all"

	// ScopeCurrent keeps the caller's own session alive and revokes every
	// other one. A weaker posture, for deployments that would rather not
	// log the caller out of the device they just changed the password on.
	ScopeCurrent PasswordChangeScope = "current"
)

// AuthConfig carries the tunables of the token lifecycle.
type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	PasswordChangeScope PasswordChangeScope

	// TenantRedirectBase, when set, is the URL prefix tenant selection
	// points clients at, e.g. "https://app.example.com/t". Optional.
	TenantRedirectBase string
}

// AuthService owns the authentication token lifecycle: credential
// verification, issuance, rotation, revocation and tenant binding. It is
// the only writer of sessions and the only caller of the revocation store.
type AuthService struct {
	store   store.Store
	revoked *revocation.Store
	codec   *jwtx.Codec
	tenants *TenantService
	cfg     AuthConfig

	now func() time.Time
}

func NewAuthService(st store.Store, rev *revocation.Store, codec *jwtx.Codec, tenants *TenantService, cfg AuthConfig) *AuthService {
	if cfg.PasswordChangeScope == "" {
		cfg.PasswordChangeScope = ScopeAll
	}
	return &AuthService{
		store:   st,
		revoked: rev,
		codec:   codec,
		tenants: tenants,
		cfg:     cfg,
		now:     time.Now,
	}
}

// LoginResult is what a successful credential verification hands back:
// a tenant-less token pair plus the memberships the caller may select.
type LoginResult struct {
	Tokens      domain.TokenPair
	Principal   domain.PrincipalSummary
	Memberships []domain.MembershipSummary
}

// dummyHash is verified against when the email matches no principal, so an
// unknown address costs the same argon2id work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword(idx.New().String())
	if err != nil {
		return ""
	}
	return h
})

// Login verifies email+password and, on success, opens a session and mints
// a tenant-less token pair. Every failure the caller can observe is
// ErrInvalidCredentials; the audit log records the real reason.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	audit := slogx.Audit(ctx)

	p, err := s.store.Principals().GetPrincipalByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a verification anyway so unknown emails are not
			// distinguishable from wrong passwords by response time.
			_ = cryptox.VerifyPassword(password, dummyHash())
			audit.Info("login rejected", "reason", "unknown_email", "email", email)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, s.wrapDependency(err)
	}

	if err := cryptox.VerifyPassword(password, p.PasswordHash); err != nil {
		audit.Info("login rejected", "reason", "wrong_password", "principal_id", p.ID)
		return LoginResult{}, ErrInvalidCredentials
	}

	if !p.CanAuthenticate() {
		audit.Warn("login rejected", "reason", "principal_"+string(p.Status), "principal_id", p.ID)
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	sid := idx.New().String()

	rawRefresh, fp, err := s.codec.IssueRefresh()
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh: %w", err)
	}
	access, claims, err := s.codec.IssueAccess(p.ID, sid, "", "", s.cfg.AccessTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access: %w", err)
	}

	sess := domain.Session{
		ID:          sid,
		PrincipalID: p.ID,
		RefreshHash: fp,
		ExpiresAt:   now.Add(s.cfg.RefreshTTL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Sessions().CreateSession(ctx, sess); err != nil {
		return LoginResult{}, s.wrapDependency(err)
	}

	if err := s.store.Principals().UpdateLastAuthenticated(ctx, p.ID, now); err != nil {
		// Bookkeeping only; the login itself already succeeded.
		slogx.FromContext(ctx).Warn("update last_authenticated failed",
			"principal_id", p.ID, "error", err)
	}

	memberships, err := s.tenants.ListForPrincipal(ctx, p.ID)
	if err != nil {
		return LoginResult{}, s.wrapDependency(err)
	}
	summaries := make([]domain.MembershipSummary, 0, len(memberships))
	for _, m := range memberships {
		summaries = append(summaries, m.Summary())
	}

	audit.Info("login succeeded",
		"principal_id", p.ID, "session_id", sid, "jti", claims.ID)

	return LoginResult{
		Tokens:      s.tokenPair(access, rawRefresh),
		Principal:   p.Summary(),
		Memberships: summaries,
	}, nil
}

// Refresh exchanges a raw refresh token for a fresh pair, rotating the
// session's stored fingerprint under compare-and-swap so a given token
// value can win at most once. Tenant binding carries over unchanged.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (domain.TokenPair, error) {
	audit := slogx.Audit(ctx)
	fp := cryptox.FingerprintToken(rawRefresh)

	sess, err := s.store.Sessions().GetSessionByRefreshHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// An already-rotated token's hash matches nothing, so stale
			// reuse lands here as well as plain garbage.
			audit.Info("refresh rejected", "reason", "unknown_session")
			return domain.TokenPair{}, ErrSessionNotFound
		}
		return domain.TokenPair{}, s.wrapDependency(err)
	}

	now := s.now()
	if sess.Expired(now) {
		audit.Info("refresh rejected", "reason", "session_expired",
			"session_id", sess.ID, "principal_id", sess.PrincipalID)
		return domain.TokenPair{}, ErrTokenExpired
	}

	revoked, err := s.revoked.IsRevoked(ctx, fp)
	if err != nil {
		return domain.TokenPair{}, s.wrapDependency(err)
	}
	if revoked {
		// The hash still resolves to a live session yet the token id is
		// blacklisted. That combination should not happen in normal
		// operation and is worth treating as a possible replay.
		audit.Error("refresh rejected, possible replay",
			"session_id", sess.ID, "principal_id", sess.PrincipalID)
		return domain.TokenPair{}, ErrTokenRevoked
	}

	newRaw, newFP, err := s.codec.IssueRefresh()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}
	access, _, err := s.codec.IssueAccess(sess.PrincipalID, sess.ID, sess.TenantID, sess.Role, s.cfg.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	newExpiry := now.Add(s.cfg.RefreshTTL)
	if err := s.store.Sessions().RotateSession(ctx, sess.ID, fp, newFP, newExpiry); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another exchange of the same token already won. Do not
			// retry with stale state; the caller must re-authenticate.
			audit.Warn("refresh lost rotation race",
				"session_id", sess.ID, "principal_id", sess.PrincipalID)
			return domain.TokenPair{}, ErrRotationConflict
		}
		return domain.TokenPair{}, s.wrapDependency(err)
	}

	// The old hash is already unfindable, but blacklisting it too keeps a
	// stale copy rejected even if the store and cache ever disagree.
	if err := s.revoked.Revoke(ctx, fp, newExpiry.Sub(now)); err != nil {
		slogx.FromContext(ctx).Warn("post-rotation revoke failed",
			"session_id", sess.ID, "error", err)
	}

	audit.Info("refresh succeeded",
		"session_id", sess.ID, "principal_id", sess.PrincipalID, "tenant_id", sess.TenantID)

	return s.tokenPair(access, newRaw), nil
}

// TenantSelection is the outcome of a successful tenant selection: a
// narrowed access token, the tenant it is scoped to, and where the client
// should take the user next.
type TenantSelection struct {
	Tokens     domain.TokenPair
	Tenant     domain.MembershipSummary
	RedirectTo string
}

// SelectTenant binds the caller's live session to one of their tenants and
// re-issues an access token carrying the tenant and role claims. The
// refresh token is untouched; subsequent refreshes keep the binding.
func (s *AuthService) SelectTenant(ctx context.Context, claims jwtx.Claims, tenantID string) (TenantSelection, error) {
	audit := slogx.Audit(ctx)
	principalID := claims.Subject

	m, err := s.tenants.Resolve(ctx, principalID, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTenantNotAuthorized):
			audit.Warn("tenant selection rejected", "reason", "not_a_member",
				"principal_id", principalID, "tenant_id", tenantID)
		case errors.Is(err, ErrTenantNotActive):
			audit.Warn("tenant selection rejected", "reason", "tenant_suspended",
				"principal_id", principalID, "tenant_id", tenantID)
		default:
			err = s.wrapDependency(err)
		}
		return TenantSelection{}, err
	}

	if claims.SID == "" {
		return TenantSelection{}, ErrSessionNotFound
	}
	if err := s.store.Sessions().BindSessionTenant(ctx, claims.SID, tenantID, m.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The session behind this access token is already gone,
			// typically logout racing tenant selection.
			return TenantSelection{}, ErrSessionNotFound
		}
		return TenantSelection{}, s.wrapDependency(err)
	}

	access, _, err := s.codec.IssueAccess(principalID, claims.SID, tenantID, m.Role, s.cfg.AccessTTL)
	if err != nil {
		return TenantSelection{}, fmt.Errorf("issue access: %w", err)
	}

	audit.Info("tenant selected",
		"principal_id", principalID, "session_id", claims.SID,
		"tenant_id", tenantID, "role", m.Role)

	// Access token only; the refresh credential is not rotated here.
	return TenantSelection{
		Tokens: domain.TokenPair{
			AccessToken: access,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.cfg.AccessTTL.Seconds()),
		},
		Tenant:     m.Summary(),
		RedirectTo: s.tenantRedirect(tenantID),
	}, nil
}

// tenantRedirect builds the post-selection destination, empty when no base
// is configured.
func (s *AuthService) tenantRedirect(tenantID string) string {
	if s.cfg.TenantRedirectBase == "" {
		return ""
	}
	return strings.TrimRight(s.cfg.TenantRedirectBase, "/") + "/" + tenantID
}

// Logout tears down the session behind a refresh token. It is idempotent:
// an unknown or already-rotated token still returns success, but the
// presented fingerprint is blacklisted either way so a stale copy cannot
// resurface.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	audit := slogx.Audit(ctx)
	fp := cryptox.FingerprintToken(rawRefresh)

	// Blacklist first. Even when no session matches, the value itself must
	// never exchange again. The session row may outlive the token by a few
	// seconds of TTL skew, so bound by the full refresh lifetime.
	if err := s.revoked.Revoke(ctx, fp, s.cfg.RefreshTTL); err != nil {
		return s.wrapDependency(err)
	}

	sess, err := s.store.Sessions().GetSessionByRefreshHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			audit.Info("logout for unknown session")
			return nil
		}
		return s.wrapDependency(err)
	}

	if err := s.store.Sessions().InvalidateSession(ctx, sess.ID); err != nil {
		return s.wrapDependency(err)
	}

	audit.Info("logout succeeded",
		"session_id", sess.ID, "principal_id", sess.PrincipalID)
	return nil
}

// RevokeAccessToken blacklists a still-valid access token by its jti for
// the remainder of its lifetime. Used by the logout handler when the
// caller also presents a bearer token.
func (s *AuthService) RevokeAccessToken(ctx context.Context, claims jwtx.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return s.wrapDependency(err)
	}
	return nil
}

// ChangePassword verifies the current password, then stores a new argon2id
// hash and applies the configured session policy in one transaction: scope
// "all" kills every session, scope "current" spares the caller's own.
// Either the new hash and the teardown both land or neither does; the
// refresh fingerprints of the removed sessions are blacklisted afterwards.
func (s *AuthService) ChangePassword(ctx context.Context, claims jwtx.Claims, current, next string) error {
	audit := slogx.Audit(ctx)
	principalID := claims.Subject

	p, err := s.store.Principals().GetPrincipalByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return s.wrapDependency(err)
	}

	if err := cryptox.VerifyPassword(current, p.PasswordHash); err != nil {
		audit.Info("password change rejected", "reason", "wrong_password",
			"principal_id", principalID)
		return ErrInvalidCredentials
	}
	if cryptox.VerifyPassword(next, p.PasswordHash) == nil {
		return ErrPasswordReuse
	}

	newHash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// The hash update and the session teardown must not be separable: a
	// failure between them would leave old sessions alive under the new
	// password. torn collects what the committed transaction removed.
	var torn []domain.Session
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Principals().UpdatePasswordHash(ctx, principalID, newHash); err != nil {
			return err
		}
		sessions, err := tx.Sessions().ListSessionsForPrincipal(ctx, principalID)
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			if s.cfg.PasswordChangeScope == ScopeCurrent && sess.ID == claims.SID {
				continue
			}
			if err := tx.Sessions().InvalidateSession(ctx, sess.ID); err != nil {
				return err
			}
			torn = append(torn, sess)
		}
		return nil
	})
	if err != nil {
		return s.wrapDependency(err)
	}

	s.blacklistSessions(ctx, torn)

	audit.Info("password changed",
		"principal_id", principalID, "scope", string(s.cfg.PasswordChangeScope))
	return nil
}

// blacklistSessions revokes the refresh fingerprints of sessions whose rows
// are already deleted. The tokens cannot exchange without their rows, so a
// failed blacklist write only loses the extra layer; log and move on.
func (s *AuthService) blacklistSessions(ctx context.Context, sessions []domain.Session) {
	now := s.now()
	for _, sess := range sessions {
		if err := s.revoked.Revoke(ctx, sess.RefreshHash, sess.ExpiresAt.Sub(now)); err != nil {
			slogx.FromContext(ctx).Warn("refresh blacklist after password change failed",
				"session_id", sess.ID, "error", err)
		}
	}
}

func (s *AuthService) tokenPair(access, refresh string) domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}
}

// wrapDependency folds infrastructure failures into the one retryable
// error of the taxonomy. Domain sentinels pass through untouched.
func (s *AuthService) wrapDependency(err error) error {
	if errors.Is(err, revocation.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrAlreadyExists) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
}
