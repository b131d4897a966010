package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// IdentityKey is the context key for the verified identity.
	IdentityKey = "identity"
)

// Identity is the verified subject of an identity token.
type Identity struct {
	UID   string
	Email string
}

// IdentityVerifier validates a bearer identity token and returns the
// verified subject. The verification backend is an external collaborator;
// this interface is the boundary.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// RequireAuth returns a middleware that requires a valid identity token.
// Validation and auth errors are returned immediately, before any upstream
// platform call is attempted.
func RequireAuth(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authorization header required",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired identity token",
				"code":  "INVALID_TOKEN",
			})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return ""
}

// GetIdentity returns the verified identity from context, or nil.
func GetIdentity(c *gin.Context) *Identity {
	if val, exists := c.Get(IdentityKey); exists {
		if id, ok := val.(*Identity); ok {
			return id
		}
	}
	return nil
}
