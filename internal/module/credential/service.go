package credential

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	apperrors "github.com/gradlink/server/internal/shared/errors"
	"github.com/gradlink/server/internal/shared/vcs"
)

// Service manages the credential lifecycle: initial code exchange and
// refresh of stale credentials.
type Service struct {
	provider TokenProvider
	clients  vcs.Factory
	store    *Store
	logger   *zap.Logger

	// Per-account advisory locks so two overlapping refresh calls for the
	// same account converge on a single upstream winner.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a credential service.
func NewService(provider TokenProvider, clients vcs.Factory, store *Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		clients:  clients,
		store:    store,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Exchange converts an authorization code into a stored credential owned by
// ownerUID, the verified identity of the calling user.
//
// Validation happens before any outbound call. A token response without an
// access token fails hard, and so does the follow-up profile fetch: the
// service never persists a credential for an unknown identity.
func (s *Service) Exchange(ctx context.Context, ownerUID, code, verifier string) (*AccountDocument, error) {
	if ownerUID == "" {
		return nil, apperrors.Unauthorized("")
	}
	if code == "" || verifier == "" {
		return nil, apperrors.Validation(ErrMissingAuthorization.Error())
	}

	token, err := s.provider.Exchange(ctx, code, verifier)
	if err != nil {
		s.logger.Error("token exchange failed", zap.Error(err))
		return nil, apperrors.UpstreamAuth("token exchange failed", err)
	}
	if token.AccessToken == "" {
		return nil, apperrors.UpstreamAuth(ErrNoAccessToken.Error(), ErrNoAccessToken)
	}

	account, err := s.clients.ClientFor(token.AccessToken).User(ctx, "")
	if err != nil {
		s.logger.Error("profile fetch after exchange failed", zap.Error(err))
		return nil, apperrors.UpstreamFetch("could not fetch account profile", vcs.StatusCode(err), err)
	}

	now := time.Now()
	doc := &AccountDocument{
		OwnerUID: ownerUID,
		Profile: AccountProfile{
			ExternalID: account.ID,
			Username:   account.Login,
			Email:      account.Email,
			AvatarURL:  account.AvatarURL,
		},
		Auth: OAuthCredential{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    expiresAtMillis(token),
			CreatedAt:    now,
		},
	}

	// Subsequent exchanges update the account document rather than
	// replacing it: the original credential creation time survives. The
	// owner does not: completing a fresh authorization re-binds the
	// platform account to whoever just proved possession of it.
	if existing, gerr := s.store.Get(ctx, account.Login); gerr == nil {
		doc.Auth.CreatedAt = existing.Auth.CreatedAt
		if doc.Auth.RefreshToken == "" {
			doc.Auth.RefreshToken = existing.Auth.RefreshToken
		}
		if doc.Profile.Email == "" {
			doc.Profile.Email = existing.Profile.Email
		}
	}

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, apperrors.Persistence("could not persist credential", err)
	}

	s.logger.Info("credential exchanged",
		zap.String("username", account.Login),
		zap.Int64("external_id", account.ID),
		zap.Bool("has_refresh_token", doc.Auth.RefreshToken != ""),
	)
	return doc, nil
}

// Refresh converts the stored credential for accountKey into a fresh one.
// Only the account's owner may refresh it; the response carries the new
// access token, so the same ownership rule as AccessToken applies.
//
// The new refresh token is merged, not replaced: when the upstream response
// omits one, the prior refresh token is retained.
func (s *Service) Refresh(ctx context.Context, callerUID, accountKey string) (*AccountDocument, error) {
	if callerUID == "" {
		return nil, apperrors.Unauthorized("")
	}
	if accountKey == "" {
		return nil, apperrors.Validation("account key is required")
	}

	lock := s.accountLock(Key(accountKey))
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent refresh that just finished
	// already stored the winning credential.
	doc, err := s.store.Get(ctx, accountKey)
	if err != nil {
		return nil, err
	}
	if doc.OwnerUID == "" || doc.OwnerUID != callerUID {
		return nil, apperrors.Linkage(ErrAccountNotOwned.Error()).
			WithSolutions("Reconnect the platform account from your own session")
	}
	if doc.Auth.RefreshToken == "" {
		return nil, apperrors.Validation(ErrMissingRefreshToken.Error()).
			WithSolutions("Reconnect the account to grant a new authorization")
	}

	token, err := s.provider.Refresh(ctx, doc.Auth.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed",
			zap.String("account", Key(accountKey)),
			zap.Error(err),
		)
		return nil, apperrors.UpstreamAuth("token refresh failed", err)
	}

	doc.Auth.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		doc.Auth.RefreshToken = token.RefreshToken
	}
	doc.Auth.ExpiresAt = expiresAtMillis(token)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, apperrors.Persistence("could not persist refreshed credential", err)
	}

	s.logger.Info("credential refreshed", zap.String("account", Key(accountKey)))
	return doc, nil
}

func (s *Service) accountLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if s.locks[key] == nil {
		s.locks[key] = &sync.Mutex{}
	}
	return s.locks[key]
}

// expiresAtMillis converts a token expiry into epoch milliseconds,
// 0 when the provider did not bound the token.
func expiresAtMillis(token *oauth2.Token) int64 {
	if token.Expiry.IsZero() {
		return 0
	}
	return token.Expiry.UnixMilli()
}
