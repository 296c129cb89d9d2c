package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = time.Hour
	adminSubject    = "admin"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	ErrAuthDisabled    = errors.New("api auth is not configured")
)

// AuthService guards the local API with a single admin password. The
// bcrypt hash comes from configuration; an empty hash disables auth.
type AuthService struct {
	passwordHash string
	signingKey   []byte
	ttl          time.Duration
}

// NewAuthService builds the service. An empty secret gets a per-boot random
// key, so tokens do not survive a restart.
func NewAuthService(passwordHash, secret string, ttl time.Duration) *AuthService {
	if secret == "" {
		secret = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{
		passwordHash: strings.TrimSpace(passwordHash),
		signingKey:   []byte(secret),
		ttl:          ttl,
	}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// Enabled reports whether a password is configured.
func (s *AuthService) Enabled() bool { return s.passwordHash != "" }

// GenerateToken validates the admin password and returns a JWT.
func (s *AuthService) GenerateToken(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAuthDisabled
	}
	if err := verifyPassword(s.passwordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(time.Now())
}

// ParseToken validates a bearer token.
func (s *AuthService) ParseToken(accessToken string) error {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != adminSubject {
		return ErrInvalidToken
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for api.admin_password_hash.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(s.signingKey)
}
