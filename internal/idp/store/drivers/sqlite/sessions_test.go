package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/passport/internal/idp/domain"
	"github.com/aussiebroadwan/passport/internal/idp/store"
	"github.com/aussiebroadwan/passport/pkg/idx"
)

var testDBCounter int
var testDBMu sync.Mutex

func newTestStore(t *testing.T) *Store {
	t.Helper()

	testDBMu.Lock()
	testDBCounter++
	n := testDBCounter
	testDBMu.Unlock()

	dsn := fmt.Sprintf("file:sessions_test_%d?mode=memory&cache=shared", n)
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// Shared-cache in-memory SQLite returns SQLITE_LOCKED under concurrent
	// writers; a single pooled connection serializes them instead.
	s.db.SetMaxOpenConns(1)

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedPrincipal(t *testing.T, s *Store) domain.Principal {
	t.Helper()

	p := domain.Principal{
		ID:           idx.New().String(),
		Email:        fmt.Sprintf("%s@example.com", idx.New()),
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Status:       domain.PrincipalActive,
	}
	require.NoError(t, s.Principals().CreatePrincipal(context.Background(), p))
	return p
}

func seedSession(t *testing.T, s *Store, principalID, hash string) domain.Session {
	t.Helper()

	sess := domain.Session{
		ID:          idx.New().String(),
		PrincipalID: principalID,
		RefreshHash: hash,
		ExpiresAt:   time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, s.Sessions().CreateSession(context.Background(), sess))
	return sess
}

func TestSessionCreateAndLookup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	sess := seedSession(t, s, p.ID, "hash-1")

	got, err := s.Sessions().GetSessionByRefreshHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, p.ID, got.PrincipalID)
	require.Empty(t, got.TenantID)

	_, err = s.Sessions().GetSessionByRefreshHash(ctx, "no-such-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRotateSessionCAS(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	sess := seedSession(t, s, p.ID, "old-hash")

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	require.NoError(t, s.Sessions().RotateSession(ctx, sess.ID, "old-hash", "new-hash", newExpiry))

	// The predecessor hash resolves to nothing anymore.
	_, err := s.Sessions().GetSessionByRefreshHash(ctx, "old-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Sessions().GetSessionByRefreshHash(ctx, "new-hash")
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)

	// Rotating again with the stale hash must fail with conflict.
	err = s.Sessions().RotateSession(ctx, sess.ID, "old-hash", "another-hash", newExpiry)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestRotateSessionConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	sess := seedSession(t, s, p.ID, "shared-hash")

	const workers = 8
	expiry := time.Now().Add(time.Hour).UTC()

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Sessions().RotateSession(ctx, sess.ID, "shared-hash", fmt.Sprintf("winner-%d", i), expiry)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, store.ErrConflict)
		}
	}
	require.Equal(t, 1, wins, "exactly one concurrent rotation must win")
}

func TestBindSessionTenant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	sess := seedSession(t, s, p.ID, "hash-bind")

	tenant := domain.Tenant{ID: idx.New().String(), Name: "Acme", Status: domain.TenantActive}
	require.NoError(t, s.Tenants().CreateTenant(ctx, tenant))

	require.NoError(t, s.Sessions().BindSessionTenant(ctx, sess.ID, tenant.ID, "admin"))

	got, err := s.Sessions().GetSessionByRefreshHash(ctx, "hash-bind")
	require.NoError(t, err)
	require.Equal(t, tenant.ID, got.TenantID)
	require.Equal(t, "admin", got.Role)

	require.ErrorIs(t, s.Sessions().BindSessionTenant(ctx, "missing", tenant.ID, "admin"), store.ErrNotFound)
}

func TestInvalidateSessionIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	sess := seedSession(t, s, p.ID, "hash-del")

	require.NoError(t, s.Sessions().InvalidateSession(ctx, sess.ID))
	// Second delete of the same session is not an error.
	require.NoError(t, s.Sessions().InvalidateSession(ctx, sess.ID))

	_, err := s.Sessions().GetSessionByRefreshHash(ctx, "hash-del")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidateAllPrincipalSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)
	seedSession(t, s, p.ID, "hash-a")
	seedSession(t, s, p.ID, "hash-b")

	other := seedPrincipal(t, s)
	seedSession(t, s, other.ID, "hash-other")

	require.NoError(t, s.Sessions().InvalidateAllPrincipalSessions(ctx, p.ID))

	sessions, err := s.Sessions().ListSessionsForPrincipal(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, sessions)

	// Unrelated principals keep their sessions.
	_, err = s.Sessions().GetSessionByRefreshHash(ctx, "hash-other")
	require.NoError(t, err)
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		s := newTestStore(t)
		p := seedPrincipal(t, s)
		sess := seedSession(t, s, p.ID, "hash-tx-ok")

		err := s.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Principals().UpdatePasswordHash(ctx, p.ID, "new-hash"); err != nil {
				return err
			}
			return tx.Sessions().InvalidateSession(ctx, sess.ID)
		})
		require.NoError(t, err)

		got, err := s.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, "new-hash", got.PasswordHash)

		_, err = s.Sessions().GetSessionByRefreshHash(ctx, "hash-tx-ok")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("rolls back every write when fn errors", func(t *testing.T) {
		s := newTestStore(t)
		p := seedPrincipal(t, s)
		sess := seedSession(t, s, p.ID, "hash-tx-fail")

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Principals().UpdatePasswordHash(ctx, p.ID, "new-hash"))
			require.NoError(t, tx.Sessions().InvalidateSession(ctx, sess.ID))
			return boom
		})
		require.ErrorIs(t, err, boom)

		// Neither the hash update nor the session delete survives.
		got, err := s.Principals().GetPrincipalByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, p.PasswordHash, got.PasswordHash)

		live, err := s.Sessions().GetSessionByRefreshHash(ctx, "hash-tx-fail")
		require.NoError(t, err)
		require.Equal(t, sess.ID, live.ID)
	})
}

func TestDeleteExpiredSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newTestStore(t)
	p := seedPrincipal(t, s)

	expired := domain.Session{
		ID:          idx.New().String(),
		PrincipalID: p.ID,
		RefreshHash: "hash-expired",
		ExpiresAt:   time.Now().Add(-time.Hour).UTC(),
	}
	require.NoError(t, s.Sessions().CreateSession(ctx, expired))
	seedSession(t, s, p.ID, "hash-live")

	require.NoError(t, s.Sessions().DeleteExpiredSessions(ctx))

	_, err := s.Sessions().GetSessionByRefreshHash(ctx, "hash-expired")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Sessions().GetSessionByRefreshHash(ctx, "hash-live")
	require.NoError(t, err)
}
