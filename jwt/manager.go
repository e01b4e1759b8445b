package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// SigningMethod selects the algorithm used to sign and verify session tokens.
type SigningMethod string

const (
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrTokenExpired is returned by Parse when the token's exp claim has passed.
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenInvalid is returned by Parse for malformed, mis-signed or mis-scoped tokens.
	ErrTokenInvalid = errors.New("session token invalid")
)

// Config defines the signing material and validation rules of a [Manager].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

// Manager issues and verifies session tokens.
//
// A Manager built without a private key can only verify.
type Manager struct {
	config Config
}

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	UID      string `json:"uid"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL < 0 {
		return nil, oops.Code("JWT_CONFIG_INVALID").Errorf("negative TTL")
	}
	if cfg.TTL == 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, oops.Code("JWT_CONFIG_INVALID").With("leeway", cfg.Leeway).Errorf("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, oops.Code("JWT_CONFIG_INVALID").Errorf("hs256 requires a shared secret")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, oops.Code("JWT_CONFIG_INVALID").Wrap(err)
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, oops.Code("JWT_CONFIG_INVALID").Errorf("ed25519 requires a public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, oops.Code("JWT_CONFIG_INVALID").Wrap(err)
		}
	default:
		return nil, oops.Code("JWT_CONFIG_INVALID").With("method", cfg.SigningMethod).Errorf("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// Issue mints a session token for uid authenticated through provider.
func (j *Manager) Issue(uid, provider string) (string, error) {
	return j.IssueWithTTL(uid, provider, j.config.TTL)
}

// IssueWithTTL mints a session token with an explicit lifetime. A non-positive ttl yields an
// already-expired token, which is useful for exercising expiry handling.
func (j *Manager) IssueWithTTL(uid, provider string, ttl time.Duration) (string, error) {
	if len(j.config.PrivateKey) == 0 {
		return "", oops.Code("JWT_SIGN_FAILED").Errorf("manager has no signing key")
	}

	now := time.Now()
	claims := SessionClaims{
		UID:      uid,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}
	if j.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.config.Audience}
	}

	token := jwt.NewWithClaims(j.getMethod(), claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}

	signKey, err := j.getSignKey()
	if err != nil {
		return "", oops.Code("JWT_SIGN_FAILED").Wrap(err)
	}

	signed, err := token.SignedString(signKey)
	if err != nil {
		return "", oops.Code("JWT_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Parse verifies tokenStr and returns its claims. Expired tokens yield an error matching
// [ErrTokenExpired]; every other rejection matches [ErrTokenInvalid].
func (j *Manager) Parse(tokenStr string) (*SessionClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.getMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}
	if j.config.Audience != "" {
		options = append(options, jwt.WithAudience(j.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != j.getMethod().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		if j.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != j.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return j.getVerifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("JWT_EXPIRED").Wrap(errors.Join(ErrTokenExpired, err))
		}
		return nil, oops.Code("JWT_INVALID").Wrap(errors.Join(ErrTokenInvalid, err))
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, oops.Code("JWT_INVALID").Wrap(ErrTokenInvalid)
	}
	return claims, nil
}

// Inspect reads the claims of tokenStr without verifying its signature. It reports false when
// the token is not a JWT. Callers must not make trust decisions from the result.
func Inspect(tokenStr string) (*SessionClaims, bool) {
	if strings.Count(tokenStr, ".") != 2 {
		return nil, false
	}
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// ExpiresAt returns the expiry of tokenStr read through [Inspect].
func ExpiresAt(tokenStr string) (time.Time, bool) {
	claims, ok := Inspect(tokenStr)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (j *Manager) getMethod() jwt.SigningMethod {
	switch j.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (j *Manager) getSignKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(j.config.PrivateKey)
	}
}

func (j *Manager) getVerifyKey() (interface{}, error) {
	switch j.config.SigningMethod {
	case MethodHS256:
		return j.config.PrivateKey, nil
	default:
		return parseEdPublicKey(j.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
