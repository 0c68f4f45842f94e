package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for token verification. Callers must be able to tell an
// expired token (refresh may be offered) from a tampered or malformed one.
var (
	// ErrInvalidToken is returned when a token is malformed, carries a bad
	// signature, or fails issuer/audience/type checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// TokenType selects which secret/issuer/audience set a token is signed and
// verified with. An access token never verifies on the refresh path and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPayload is the identity embedded in every issued token.
type TokenPayload struct {
	UserID string
	Email  string
	Role   string
}

// Claims holds the JWT claims for both token types. TokenType is a private
// claim so a token presented on the wrong verification path is rejected even
// if the secrets were ever misconfigured to match.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}

// Payload extracts the TokenPayload carried by the claims.
func (c *Claims) Payload() TokenPayload {
	return TokenPayload{UserID: c.Subject, Email: c.Email, Role: c.Role}
}

// TokenConfig is the per-token-type signing configuration.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenCodec signs and verifies HS256 JWTs with a distinct secret, issuer,
// and audience per token type.
type TokenCodec struct {
	access  TokenConfig
	refresh TokenConfig
}

// NewTokenCodec returns a TokenCodec for the given per-type configurations.
// Both secrets must be non-empty and must differ.
func NewTokenCodec(access, refresh TokenConfig) (*TokenCodec, error) {
	if len(access.Secret) == 0 || len(refresh.Secret) == 0 {
		return nil, errors.New("security: token secrets must be non-empty")
	}
	if string(access.Secret) == string(refresh.Secret) {
		return nil, errors.New("security: access and refresh secrets must differ")
	}
	return &TokenCodec{access: access, refresh: refresh}, nil
}

// SignOption overrides a claim or the TTL for a single signing call.
type SignOption func(*signOptions)

type signOptions struct {
	ttl      time.Duration
	issuer   string
	audience string
	subject  string
}

// WithTTL overrides the configured token lifetime.
func WithTTL(d time.Duration) SignOption { return func(o *signOptions) { o.ttl = d } }

// WithIssuer overrides the configured iss claim.
func WithIssuer(iss string) SignOption { return func(o *signOptions) { o.issuer = iss } }

// WithAudience overrides the configured aud claim.
func WithAudience(aud string) SignOption { return func(o *signOptions) { o.audience = aud } }

// WithSubject overrides the sub claim (defaults to the payload's user ID).
func WithSubject(sub string) SignOption { return func(o *signOptions) { o.subject = sub } }

// SignAccess issues a short-lived access token for the given payload.
// Returns the token string and its expiry.
func (c *TokenCodec) SignAccess(p TokenPayload, opts ...SignOption) (string, time.Time, error) {
	return c.sign(c.access, TokenTypeAccess, p, opts)
}

// SignRefresh issues a long-lived refresh token for the given payload.
// Returns the token string and its expiry. The raw value must never be
// persisted; callers store HashToken of it.
func (c *TokenCodec) SignRefresh(p TokenPayload, opts ...SignOption) (string, time.Time, error) {
	return c.sign(c.refresh, TokenTypeRefresh, p, opts)
}

func (c *TokenCodec) sign(cfg TokenConfig, typ TokenType, p TokenPayload, opts []SignOption) (string, time.Time, error) {
	o := signOptions{ttl: cfg.TTL, issuer: cfg.Issuer, audience: cfg.Audience, subject: p.UserID}
	for _, opt := range opts {
		opt(&o)
	}
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(o.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   o.subject,
			Issuer:    o.issuer,
			Audience:  jwt.ClaimStrings{o.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:     p.Email,
		Role:      p.Role,
		TokenType: string(typ),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses and validates a token of the given type: signature, exp, iss,
// aud, and token_type. Returns ErrTokenExpired only when the token is
// otherwise valid but past exp; every other failure is ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string, typ TokenType) (*Claims, error) {
	cfg := c.access
	if typ == TokenTypeRefresh {
		cfg = c.refresh
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		// Signature failures win over expiry: an expired token with a bad
		// signature is invalid, not expired.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			if claims, ok := token.Claims.(*Claims); ok && claimsMatch(claims, cfg, typ) {
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claimsMatch(claims, cfg, typ) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func claimsMatch(claims *Claims, cfg TokenConfig, typ TokenType) bool {
	if claims.Issuer != cfg.Issuer {
		return false
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == cfg.Audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return false
	}
	return claims.TokenType == string(typ)
}

// DecodeUnverified decodes the claims without verifying the signature.
// For logging and expiry bookkeeping only; never for authorization decisions.
func (c *TokenCodec) DecodeUnverified(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
