package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/passport/pkg/cryptox"
)

// Supported signing algorithms. The token lifecycle contract is the same
// for both; which one a deployment runs is a key-distribution choice.
const (
	AlgHS256 = "HS256"
	AlgEdDSA = "EdDSA"
)

// Verification errors. ErrExpired is deliberately distinct from the other
// invalidity classes so callers can report "expired" separately while the
// end-user message stays generic.
var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWrongType   = errors.New("jwtx: wrong token type")
)

const defaultLeeway = 30 * time.Second

// Codec signs and parses bearer tokens. It is stateless given its key:
// safe for concurrent use and cheap to share process-wide.
type Codec struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any

	issuer   string
	audience string
	leeway   time.Duration
}

// NewCodec builds a Codec for the given algorithm. For HS256 the key is the
// shared secret (32 bytes minimum); for EdDSA it is the 32-byte ed25519 seed.
func NewCodec(alg string, key []byte, issuer, audience string) (*Codec, error) {
	if issuer == "" || audience == "" {
		return nil, errors.New("jwtx: issuer and audience are required")
	}

	c := &Codec{
		issuer:   issuer,
		audience: audience,
		leeway:   defaultLeeway,
	}

	switch alg {
	case AlgHS256:
		if len(key) < 32 {
			return nil, errors.New("jwtx: HS256 secret must be at least 32 bytes")
		}
		c.method = jwt.SigningMethodHS256
		c.signKey = key
		c.verifyKey = key
	case AlgEdDSA:
		if len(key) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwtx: EdDSA seed must be %d bytes", ed25519.SeedSize)
		}
		priv := ed25519.NewKeyFromSeed(key)
		c.method = jwt.SigningMethodEdDSA
		c.signKey = priv
		c.verifyKey = priv.Public()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q", alg)
	}

	return c, nil
}

// IssueAccess mints a signed access token for subject within session sid.
// Tenant context is optional; both tenantID and role are empty for a
// tenant-less token. The returned Claims carry the generated jti and
// absolute expiry.
func (c *Codec) IssueAccess(subject, sid, tenantID, role string, ttl time.Duration) (string, Claims, error) {
	claims := NewAccessClaims(subject, sid, tenantID, role, ttl, c.issuer, c.audience, time.Now().UTC())

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.signKey)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign access token: %w", err)
	}
	return token, claims, nil
}

// IssueRefresh mints a high-entropy opaque refresh credential. The raw value
// is returned exactly once and never stored; tokenID is its deterministic
// fingerprint, used for session storage and revocation bookkeeping.
func (c *Codec) IssueRefresh() (raw, tokenID string, err error) {
	raw, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}
	return raw, cryptox.FingerprintToken(raw), nil
}

// Verify validates signature, issuer, audience, type and expiry. Signature
// and structural problems fold into ErrMalformed/ErrInvalidSig; an expired
// but otherwise valid token returns the claims together with ErrExpired.
func (c *Codec) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSig
		}
		return Claims{}, ErrMalformed
	}

	if claims.Type != TypeAccess {
		return Claims{}, ErrWrongType
	}
	if err := claims.validateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.validateAudience(c.audience); err != nil {
		return Claims{}, err
	}
	// Expiry last: claims are returned so diagnostics can see who the
	// expired token belonged to.
	if err := claims.validateExpiry(time.Now().UTC(), c.leeway); err != nil {
		return claims, err
	}

	return claims, nil
}

// DecodeUnsafe parses a token without verifying its signature. It exists
// for diagnostic logging of identifiers only and must never feed an
// authorization decision.
func DecodeUnsafe(token string) (Claims, bool) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, false
	}
	return claims, true
}
