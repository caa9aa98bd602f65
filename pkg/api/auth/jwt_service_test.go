package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-must-be-32-chars!"

func TestNewJWTServiceValidConfig(t *testing.T) {
	service, err := NewJWTService(JWTConfig{
		Secret:        testSecret,
		Issuer:        "test-issuer",
		TokenDuration: time.Hour,
	})
	require.NoError(t, err)
	assert.NotNil(t, service)
}

func TestNewJWTServiceRejectsBadSecrets(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: ""})
	assert.Error(t, err)

	_, err = NewJWTService(JWTConfig{Secret: "short"})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	service, err := NewJWTService(JWTConfig{
		Secret:        testSecret,
		Issuer:        "test-issuer",
		TokenDuration: time.Hour,
	})
	require.NoError(t, err)

	token, expiresAt, err := service.GenerateToken("alice", RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.ID) // jti set per token
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuing, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "iss"})
	require.NoError(t, err)
	validating, err := NewJWTService(JWTConfig{
		Secret: "another-secret-key-that-is-32-ch!",
		Issuer: "iss",
	})
	require.NoError(t, err)

	token, _, err := issuing.GenerateToken("bob", RoleUser)
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	issuing, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "issuer-a"})
	require.NoError(t, err)
	validating, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "issuer-b"})
	require.NoError(t, err)

	token, _, err := issuing.GenerateToken("bob", RoleUser)
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	service, err := NewJWTService(JWTConfig{
		Secret:        testSecret,
		Issuer:        "iss",
		TokenDuration: -time.Minute,
	})
	require.NoError(t, err)

	token, _, err := service.GenerateToken("carol", RoleUser)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	service, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	_, err = service.ValidateToken("not-a-token")
	assert.Error(t, err)
}
