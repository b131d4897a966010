package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Filter is an equality filter on a document field. Field may address a
// nested value with a dotted path ("profile.external_id"). Values are
// compared as their JSON string form.
type Filter struct {
	Field string
	Value any
}

// Write is a single upsert inside a batch.
type Write struct {
	Collection string
	Key        string
	Doc        any
}

// Gateway is the durable document store used for credentials, repository
// records and pull-request records. Document keys are derived
// deterministically by the callers, so retries are idempotent here.
type Gateway interface {
	// Get unmarshals the document at collection/key into out.
	// Returns ErrNotFound when missing.
	Get(ctx context.Context, collection, key string, out any) error

	// Set upserts the document at collection/key.
	Set(ctx context.Context, collection, key string, doc any) error

	// Query unmarshals all documents in collection matching every filter
	// into out, which must be a pointer to a slice.
	Query(ctx context.Context, collection string, filters []Filter, out any) error

	// BatchWrite applies all writes atomically: either every document is
	// persisted or none is.
	BatchWrite(ctx context.Context, writes []Write) error
}
