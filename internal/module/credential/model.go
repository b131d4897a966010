package credential

import (
	"strings"
	"time"
)

// Collection is the durable-store collection for platform accounts.
const Collection = "vcs_accounts"

// Key derives the account document key from a platform username.
func Key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// OAuthCredential holds the tokens for one platform account. Credentials
// are never deleted, only superseded by a later exchange or refresh.
type OAuthCredential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    int64     `json:"expires_at"` // epoch milliseconds, 0 when unknown
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the access token is past its expiry.
// A zero expiry means the platform did not bound the token.
func (c *OAuthCredential) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.UnixMilli() >= c.ExpiresAt
}

// AccountProfile identifies the platform account that owns a credential.
type AccountProfile struct {
	ExternalID int64  `json:"external_id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// AccountDocument is the persisted account record: profile plus credential.
// OwnerUID is the verified platform user who completed the exchange; the
// stored token is only ever handed back out to that user.
type AccountDocument struct {
	OwnerUID  string          `json:"owner_uid"`
	Profile   AccountProfile  `json:"profile"`
	Auth      OAuthCredential `json:"auth"`
	UpdatedAt time.Time       `json:"updated_at"`
}
