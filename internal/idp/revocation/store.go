package revocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable reports that the backing cache could not confirm the
// revocation state. Callers must treat it as retryable and never as a
// pass on the security check it interrupted.
var ErrUnavailable = errors.New("revocation: store unavailable")

const (
	keyPrefix      = "revoked"
	defaultTimeout = 2 * time.Second
)

// Store tracks revoked token identifiers in Redis with per-entry TTLs.
// Entries expire with the token they revoke, which bounds the keyspace to
// the union of not-yet-expired revoked tokens.
type Store struct {
	redis   *redis.Client
	logger  *slog.Logger
	timeout time.Duration

	// failOpen permits IsRevoked to answer "not revoked" when Redis is
	// unreachable. Only non-production profiles may set it; in production
	// an unreachable cache must reject, since failing open silently
	// defeats revocation.
	failOpen bool
}

type Config struct {
	// FailOpen must be false in production. See Store.failOpen.
	FailOpen bool

	// Timeout bounds each Redis call. Defaults to 2s.
	Timeout time.Duration
}

func NewStore(client *redis.Client, logger *slog.Logger, cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{
		redis:    client,
		logger:   logger,
		timeout:  timeout,
		failOpen: cfg.FailOpen,
	}
}

func (s *Store) key(tokenID string) string {
	return keyPrefix + ":" + tokenID
}

// Revoke records tokenID as invalid for ttl. The ttl must equal the
// remaining validity window of the token being revoked; a ttl <= 0 means
// the token has already expired naturally and nothing needs remembering.
//
// Revoke never fails open: if the write cannot be confirmed the caller
// gets ErrUnavailable regardless of profile.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return errors.New("revocation: empty token id")
	}
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.redis.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		s.logger.Error("revocation write failed, token may remain usable",
			"token_id", tokenID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked. When Redis is
// unreachable the answer depends on the profile: fail-closed returns
// ErrUnavailable, fail-open answers "not revoked" and logs the degradation
// loudly.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		if s.failOpen {
			s.logger.Error("revocation check failed, FAILING OPEN (non-production profile)",
				"token_id", tokenID, "error", err)
			return false, nil
		}
		s.logger.Error("revocation check failed, failing closed",
			"token_id", tokenID, "error", err)
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Ping verifies the backing cache is reachable, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.redis.Ping(ctx).Err()
}
