package credential

import "errors"

// Errors returned by the credential module.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrMissingRefreshToken  = errors.New("no refresh token stored for account")
	ErrMissingAuthorization = errors.New("authorization code and code verifier are required")
	ErrNoAccessToken        = errors.New("token endpoint returned no access token")
	ErrAccountNotOwned      = errors.New("account belongs to a different user")
)
