package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradlink/server/internal/shared/config"
)

func signToken(t *testing.T, secret string, c jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerify(t *testing.T) {
	v := NewJWTVerifier(&config.AuthConfig{JWTSecret: "secret", Issuer: "gradlink"})

	token := signToken(t, "secret", claims{
		Email: "stu@uni.edu",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "stu-1",
			Issuer:    "gradlink",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", identity.UID)
	assert.Equal(t, "stu@uni.edu", identity.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewJWTVerifier(&config.AuthConfig{JWTSecret: "secret"})

	token := signToken(t, "other-secret", jwt.RegisteredClaims{Subject: "stu-1"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier(&config.AuthConfig{JWTSecret: "secret"})

	token := signToken(t, "secret", jwt.RegisteredClaims{
		Subject:   "stu-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	v := NewJWTVerifier(&config.AuthConfig{JWTSecret: "secret", Issuer: "gradlink"})

	token := signToken(t, "secret", jwt.RegisteredClaims{
		Subject: "stu-1",
		Issuer:  "someone-else",
	})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresSubject(t *testing.T) {
	v := NewJWTVerifier(&config.AuthConfig{JWTSecret: "secret"})

	token := signToken(t, "secret", jwt.RegisteredClaims{})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrNoSubject)
}
