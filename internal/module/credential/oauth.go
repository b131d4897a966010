package credential

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/gradlink/server/internal/shared/config"
)

// TokenProvider talks to the identity provider's token endpoint.
type TokenProvider interface {
	// Exchange converts an authorization code plus PKCE verifier into a token.
	Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error)

	// Refresh converts a refresh token into a fresh token.
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthProvider implements TokenProvider against the platform's OAuth
// endpoint via golang.org/x/oauth2.
type OAuthProvider struct {
	config *oauth2.Config
}

// NewOAuthProvider creates the provider from VCS configuration.
func NewOAuthProvider(cfg *config.VCSConfig) *OAuthProvider {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"repo", "read:user", "user:email"}
	}

	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     github.Endpoint,
		},
	}
}

// Exchange exchanges the authorization code for tokens.
func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh token from a stored refresh token.
func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ts := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return token, nil
}
