package service

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T, password string) *AuthService {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return NewAuthService(hash, testSecret, time.Hour)
}

func TestAuthService_GenerateToken_Success(t *testing.T) {
	svc := newTestAuth(t, "letmein")

	token, err := svc.GenerateToken("letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if err := svc.ParseToken(token); err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
}

func TestAuthService_GenerateToken_InvalidPassword(t *testing.T) {
	svc := newTestAuth(t, "correct")
	_, err := svc.GenerateToken("wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got: %v", err)
	}
}

func TestAuthService_Disabled(t *testing.T) {
	svc := NewAuthService("", "", 0)
	if svc.Enabled() {
		t.Fatalf("auth must be disabled without a hash")
	}
	if _, err := svc.GenerateToken("anything"); !errors.Is(err, ErrAuthDisabled) {
		t.Fatalf("expected ErrAuthDisabled, got %v", err)
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword("   "); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc := newTestAuth(t, "pw")
	if err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc := newTestAuth(t, "pw")
	other := NewAuthService(svc.passwordHash, "different-key", time.Hour)
	badToken, err := other.issueToken(time.Now())
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	if err := svc.ParseToken(badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := newTestAuth(t, "pw")
	expired, err := svc.issueToken(time.Now().Add(-2 * time.Hour))
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	if err := svc.ParseToken(expired); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_WrongSubject(t *testing.T) {
	svc := newTestAuth(t, "pw")
	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	s, err := tk.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if err := svc.ParseToken(s); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := newTestAuth(t, "pw")

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}
