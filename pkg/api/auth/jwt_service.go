package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// minSecretLength is the minimum HMAC secret length accepted. Shorter
// secrets make brute-forcing the signing key practical.
const minSecretLength = 32

// JWTConfig configures the token service.
type JWTConfig struct {
	Secret        string
	Issuer        string
	TokenDuration time.Duration
}

// JWTService issues and validates HMAC-signed tokens.
type JWTService struct {
	secret        []byte
	issuer        string
	tokenDuration time.Duration
}

// NewJWTService creates a token service. The secret must be at least 32
// characters.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "gridstore"
	}
	duration := cfg.TokenDuration
	if duration == 0 {
		duration = 24 * time.Hour
	}

	return &JWTService{
		secret:        []byte(cfg.Secret),
		issuer:        issuer,
		tokenDuration: duration,
	}, nil
}

// GenerateToken issues a signed token for the given identity and role.
// Returns the compact token and its expiry time.
func (s *JWTService) GenerateToken(username, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenDuration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
