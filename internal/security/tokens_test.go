package security

import (
	"errors"
	"testing"
	"time"
)

func testPayload() TokenPayload {
	return TokenPayload{UserID: "u1", Email: "alice@example.com", Role: "customer"}
}

func TestTokenCodec_SignAndVerifyAccess(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	token, exp, err := c.SignAccess(testPayload())
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}
	claims, err := c.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	p := claims.Payload()
	if p.UserID != "u1" || p.Email != "alice@example.com" || p.Role != "customer" {
		t.Errorf("payload = %+v", p)
	}
	if claims.ID == "" {
		t.Error("jti not set")
	}
}

func TestTokenCodec_SignAndVerifyRefresh(t *testing.T) {
	c, _ := NewTestTokenCodec()
	token, _, err := c.SignRefresh(testPayload())
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}
	claims, err := c.Verify(token, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("Subject = %q, want u1", claims.Subject)
	}
	if claims.TokenType != string(TokenTypeRefresh) {
		t.Errorf("TokenType = %q", claims.TokenType)
	}
}

func TestTokenCodec_CrossTypeRejected(t *testing.T) {
	c, _ := NewTestTokenCodec()
	access, _, _ := c.SignAccess(testPayload())
	refresh, _, _ := c.SignRefresh(testPayload())

	if _, err := c.Verify(access, TokenTypeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token on refresh path: want ErrInvalidToken, got %v", err)
	}
	if _, err := c.Verify(refresh, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token on access path: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_ExpiredDistinctFromInvalid(t *testing.T) {
	c, _ := NewTestTokenCodec()
	token, _, err := c.SignAccess(testPayload(), WithTTL(-time.Minute))
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	_, err = c.Verify(token, TokenTypeAccess)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: want ErrTokenExpired, got %v", err)
	}

	if _, err := c.Verify("not-a-token", TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("malformed token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_TamperedSignatureNotExpired(t *testing.T) {
	c, _ := NewTestTokenCodec()
	other, err := NewTokenCodec(
		TokenConfig{Secret: []byte("wrong-access"), Issuer: "test-auth", Audience: "test-api", TTL: time.Minute},
		TokenConfig{Secret: []byte("wrong-refresh"), Issuer: "test-auth", Audience: "test-refresh", TTL: time.Minute},
	)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	// Signed with the wrong secret and already expired: tampering must win.
	token, _, _ := other.SignAccess(testPayload(), WithTTL(-time.Minute))
	_, err = c.Verify(token, TokenTypeAccess)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered expired token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_SignOptions(t *testing.T) {
	c, _ := NewTestTokenCodec()
	token, _, err := c.SignAccess(testPayload(), WithSubject("impersonated"), WithTTL(time.Hour))
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	claims, err := c.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "impersonated" {
		t.Errorf("Subject = %q, want impersonated", claims.Subject)
	}

	// Overriding the issuer makes the token fail the configured verification path.
	offPath, _, _ := c.SignAccess(testPayload(), WithIssuer("other-issuer"))
	if _, err := c.Verify(offPath, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong issuer: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenCodec_DecodeUnverified(t *testing.T) {
	c, _ := NewTestTokenCodec()
	token, _, _ := c.SignAccess(testPayload())
	claims, err := c.DecodeUnverified(token)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	p := claims.Payload()
	if p.UserID != "u1" || p.Email != "alice@example.com" || p.Role != "customer" {
		t.Errorf("payload = %+v", p)
	}
	if claims.ExpiresAt == nil {
		t.Error("exp not decoded")
	}

	if _, err := c.DecodeUnverified("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: want ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenCodec_RejectsBadSecrets(t *testing.T) {
	same := TokenConfig{Secret: []byte("s"), Issuer: "i", Audience: "a", TTL: time.Minute}
	if _, err := NewTokenCodec(same, same); err == nil {
		t.Error("identical secrets should be rejected")
	}
	if _, err := NewTokenCodec(TokenConfig{}, same); err == nil {
		t.Error("empty secret should be rejected")
	}
}
