package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1y", 365 * 24 * time.Hour},
		{" 15m ", 15 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTTL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	for _, bad := range []string{"", "m", "15", "15x", "-5m", "0h", "fifteenm"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseTTL(bad)
			require.Error(t, err)
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("IDP_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("IDP_ISSUER", "https://idp.test")
	t.Setenv("IDP_AUDIENCE", "passport-test")
	t.Setenv("IDP_ACCESS_TTL", "15m")
	t.Setenv("IDP_REFRESH_TTL", "7d")
}

func TestLoadConfig(t *testing.T) {
	t.Run("loads required values", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 15*time.Minute, cfg.AccessTTL)
		require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
		require.Equal(t, "https://idp.test", cfg.Issuer)
		require.NotEmpty(t, cfg.SigningKey)
	})

	t.Run("missing signing key is fatal", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("IDP_SIGNING_KEY", "")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("missing TTL is fatal even outside prod", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("IDP_ACCESS_TTL", "")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("malformed TTL falls back outside prod", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ENV", "dev")
		t.Setenv("IDP_ACCESS_TTL", "garbage")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	})

	t.Run("malformed TTL is fatal in prod", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ENV", "prod")
		t.Setenv("IDP_ACCESS_TTL", "garbage")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("fail-open revocation refused in prod", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ENV", "prod")
		t.Setenv("REVOCATION_FAIL_OPEN", "true")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("unknown password change scope rejected", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PASSWORD_CHANGE_SCOPE", "everyone")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}
