package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gradlink/server/internal/shared/store"
)

// Store provides keyed storage and retrieval of account credentials over the
// persistence gateway, with a read-through volatile cache.
type Store struct {
	gateway store.Gateway
	cache   Cache
}

// NewStore creates a credential store.
func NewStore(gateway store.Gateway, cache Cache) *Store {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Store{gateway: gateway, cache: cache}
}

// Get returns the account document for a platform username.
func (s *Store) Get(ctx context.Context, username string) (*AccountDocument, error) {
	key := Key(username)
	if doc, ok := s.cache.Get(ctx, key); ok {
		return doc, nil
	}

	var doc AccountDocument
	if err := s.gateway.Get(ctx, Collection, key, &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account %s: %w", key, err)
	}

	s.cache.Set(ctx, key, &doc)
	return &doc, nil
}

// ByExternalID returns the account document owning the given platform
// numeric id.
func (s *Store) ByExternalID(ctx context.Context, externalID int64) (*AccountDocument, error) {
	var docs []AccountDocument
	err := s.gateway.Query(ctx, Collection, []store.Filter{
		{Field: "profile.external_id", Value: externalID},
	}, &docs)
	if err != nil {
		return nil, fmt.Errorf("query account by external id %d: %w", externalID, err)
	}
	if len(docs) == 0 {
		return nil, ErrAccountNotFound
	}
	return &docs[0], nil
}

// AccessToken returns the stored platform access token for a username. The
// token is only released to the user who exchanged it: a missing or mismatched
// owner yields ErrAccountNotOwned, so knowing a public platform username is
// never enough to act with its credential.
func (s *Store) AccessToken(ctx context.Context, callerUID, username string) (string, error) {
	doc, err := s.Get(ctx, username)
	if err != nil {
		return "", err
	}
	if doc.OwnerUID == "" || doc.OwnerUID != callerUID {
		return "", ErrAccountNotOwned
	}
	if doc.Auth.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return doc.Auth.AccessToken, nil
}

// TokenByExternalID returns the stored access token for the account owning
// the given platform numeric id.
func (s *Store) TokenByExternalID(ctx context.Context, externalID int64) (string, error) {
	doc, err := s.ByExternalID(ctx, externalID)
	if err != nil {
		return "", err
	}
	if doc.Auth.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return doc.Auth.AccessToken, nil
}

// Save persists the account document and refreshes the cache entry. The
// durable write happens first; a failed write never leaves a stale cache hit.
func (s *Store) Save(ctx context.Context, doc *AccountDocument) error {
	key := Key(doc.Profile.Username)
	doc.UpdatedAt = time.Now()

	s.cache.Invalidate(ctx, key)
	if err := s.gateway.Set(ctx, Collection, key, doc); err != nil {
		return fmt.Errorf("save account %s: %w", key, err)
	}
	s.cache.Set(ctx, key, doc)
	return nil
}
