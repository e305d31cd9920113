package revocation

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRevokeAndCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{})

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Hour))

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// Other identifiers are unaffected.
	revoked, err = s.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationEntryExpires(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{})

	require.NoError(t, s.Revoke(ctx, "jti-ttl", time.Minute))

	mr.FastForward(2 * time.Minute)

	// The entry expires with the token it revoked; once the token is
	// naturally dead there is nothing left to remember.
	revoked, err := s.IsRevoked(ctx, "jti-ttl")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeNonPositiveTTLIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{})

	require.NoError(t, s.Revoke(ctx, "jti-dead", 0))
	require.NoError(t, s.Revoke(ctx, "jti-dead", -time.Minute))
	require.Empty(t, mr.Keys())
}

func TestRevokeEmptyTokenID(t *testing.T) {
	t.Parallel()

	_, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{})
	require.Error(t, s.Revoke(context.Background(), "", time.Hour))
}

func TestFailClosedWhenUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{Timeout: 200 * time.Millisecond})

	mr.Close()

	_, err := s.IsRevoked(ctx, "jti-x")
	require.ErrorIs(t, err, ErrUnavailable)

	require.ErrorIs(t, s.Revoke(ctx, "jti-x", time.Hour), ErrUnavailable)
}

func TestFailOpenWhenConfigured(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr, client := newTestRedis(t)
	s := NewStore(client, slog.Default(), Config{FailOpen: true, Timeout: 200 * time.Millisecond})

	mr.Close()

	// Fail-open answers "not revoked" instead of erroring.
	revoked, err := s.IsRevoked(ctx, "jti-open")
	require.NoError(t, err)
	require.False(t, revoked)

	// Revoke itself never fails open.
	require.ErrorIs(t, s.Revoke(ctx, "jti-open", time.Hour), ErrUnavailable)
}
