package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gradlink/server/internal/shared/config"
	"github.com/gradlink/server/internal/shared/middleware"
)

// Errors returned by the verifier.
var (
	ErrInvalidToken = errors.New("invalid identity token")
	ErrNoSubject    = errors.New("identity token has no subject")
)

// claims are the identity-token claims this service reads.
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies identity tokens issued by the identity provider.
// It implements middleware.IdentityVerifier.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier from auth configuration.
func NewJWTVerifier(cfg *config.AuthConfig) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// Verify parses and validates the token, returning the verified subject.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*middleware.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrNoSubject
	}

	return &middleware.Identity{
		UID:   c.Subject,
		Email: c.Email,
	}, nil
}
