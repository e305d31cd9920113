package app

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/passport/internal/idp/service"
)

type Config struct {
	SigningAlg string // JWT signing algorithm (HS256, EdDSA) (default: HS256)
	SigningKey []byte // Required: HMAC secret or Ed25519 seed
	Issuer     string // Required: issuer claim for tokens
	Audience   string // Required: audience claim for tokens

	AccessTTL  time.Duration // Required: access token lifetime
	RefreshTTL time.Duration // Required: refresh token lifetime

	DatabaseFile string // Optional: path to SQLite database file (default: ./passport.db)

	TenantRedirectBase string // Optional: URL prefix for post-selection redirects

	RedisAddr     string // Optional: revocation store address (default: localhost:6379)
	RedisPassword string // Optional
	RedisDB       int    // Optional (default: 0)

	// RevocationFailOpen lets token checks pass when Redis is down.
	// Refused outright in prod.
	RevocationFailOpen bool

	PasswordChangeScope  service.PasswordChangeScope // all | current (default: all)
	Env                  string                      // Environment (dev, staging, prod) (default: dev)
	LogLevel             string                      // Log level (debug, info, warn, error) (default: info)
	LogFormat            string                      // Log format (json, text) (default: json)
	Port                 int                         // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration               // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration               // Expired-session sweep interval (default: 1h)
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func LoadConfig() (Config, error) {
	cfg := Config{
		SigningAlg:           getEnvOrDefault("IDP_SIGNING_ALG", "HS256"),
		Issuer:               os.Getenv("IDP_ISSUER"),
		Audience:             os.Getenv("IDP_AUDIENCE"),
		DatabaseFile:         getEnvOrDefault("IDP_DATABASE_FILE", "passport.db"),
		TenantRedirectBase:   os.Getenv("IDP_TENANT_REDIRECT_BASE"),
		RedisAddr:            getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvIntOrDefault("REDIS_DB", 0),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	key, err := loadSigningKey(os.Getenv("IDP_SIGNING_KEY"))
	if err != nil {
		return Config{}, err
	}
	cfg.SigningKey = key

	if cfg.Issuer == "" {
		return Config{}, fmt.Errorf("IDP_ISSUER is required")
	}
	if cfg.Audience == "" {
		return Config{}, fmt.Errorf("IDP_AUDIENCE is required")
	}

	cfg.AccessTTL, err = loadTTL("IDP_ACCESS_TTL", 15*time.Minute, cfg.IsProd())
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshTTL, err = loadTTL("IDP_REFRESH_TTL", 7*24*time.Hour, cfg.IsProd())
	if err != nil {
		return Config{}, err
	}

	switch scope := getEnvOrDefault("PASSWORD_CHANGE_SCOPE", "all"); scope {
	case "all":
		cfg.PasswordChangeScope = service.ScopeAll
	case "current":
		cfg.PasswordChangeScope = service.ScopeCurrent
	default:
		return Config{}, fmt.Errorf("PASSWORD_CHANGE_SCOPE must be \"all\" or \"current\", got %q", scope)
	}

	if os.Getenv("REVOCATION_FAIL_OPEN") == "true" {
		if cfg.IsProd() {
			return Config{}, fmt.Errorf("REVOCATION_FAIL_OPEN is not permitted in prod")
		}
		cfg.RevocationFailOpen = true
	}

	return cfg, nil
}

// loadSigningKey accepts either a standard-base64 value or a raw string.
// The codec enforces length and algorithm constraints later.
func loadSigningKey(raw string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("IDP_SIGNING_KEY is required")
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded, nil
	}
	return []byte(raw), nil
}

// loadTTL reads a required symbolic duration ("15m", "7d"). An unparseable
// value is a hard error in prod and falls back to the default elsewhere.
func loadTTL(key string, fallback time.Duration, prod bool) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}

	d, err := ParseTTL(raw)
	if err != nil {
		if prod {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return fallback, nil
	}
	return d, nil
}

// ttlUnits is the full set of recognised duration suffixes.
var ttlUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
	'y': 365 * 24 * time.Hour,
}

// ParseTTL parses a symbolic duration of the form "<integer><unit>" where
// unit is one of s, m, h, d, w, y.
func ParseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}

	unit, ok := ttlUnits[raw[len(raw)-1]]
	if !ok {
		return 0, fmt.Errorf("invalid duration unit in %q", raw)
	}

	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration value in %q", raw)
	}

	return time.Duration(n) * unit, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if duration, err := ParseTTL(value); err == nil {
		return duration
	}

	return defaultValue
}
