package credential

import "time"

// --- Request DTOs ---

// ExchangeRequest carries the authorization code and PKCE verifier.
type ExchangeRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier"`
}

// RefreshRequest identifies the account whose credential to refresh.
type RefreshRequest struct {
	AccountKey string `json:"accountKey" binding:"required"`
}

// --- Response DTOs ---

// ProfileResponse is the account profile portion of an exchange response.
type ProfileResponse struct {
	ExternalID int64  `json:"externalId"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

// ExchangeResponse is the result of a successful code exchange.
type ExchangeResponse struct {
	AccessToken    string          `json:"accessToken"`
	RefreshToken   string          `json:"refreshToken,omitempty"`
	ExpiresIn      int64           `json:"expiresIn"` // seconds, 0 when unbounded
	AccountProfile ProfileResponse `json:"accountProfile"`
}

// RefreshResponse is the result of a successful refresh.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// ToExchangeResponse converts an account document to the exchange response.
func (d *AccountDocument) ToExchangeResponse() *ExchangeResponse {
	return &ExchangeResponse{
		AccessToken:  d.Auth.AccessToken,
		RefreshToken: d.Auth.RefreshToken,
		ExpiresIn:    expiresInSeconds(d.Auth.ExpiresAt),
		AccountProfile: ProfileResponse{
			ExternalID: d.Profile.ExternalID,
			Username:   d.Profile.Username,
			Email:      d.Profile.Email,
			AvatarURL:  d.Profile.AvatarURL,
		},
	}
}

// ToRefreshResponse converts an account document to the refresh response.
func (d *AccountDocument) ToRefreshResponse() *RefreshResponse {
	return &RefreshResponse{
		AccessToken: d.Auth.AccessToken,
		ExpiresIn:   expiresInSeconds(d.Auth.ExpiresAt),
	}
}

func expiresInSeconds(expiresAt int64) int64 {
	if expiresAt == 0 {
		return 0
	}
	remaining := (expiresAt - time.Now().UnixMilli()) / 1000
	if remaining < 0 {
		return 0
	}
	return remaining
}
