package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names
const (
	OffersCollection     = "offers"
	VolunteersCollection = "volunteers"
)

// VersionField is the optimistic concurrency counter every document carries.
// Each write through the Store increments it.
const VersionField = "version"

// Store is the document store the engines are written against. It offers no
// multi-document atomicity; UpdateIfVersion is the only conditional write.
//
// Errors: apperr.ErrNotFound for a missing document, apperr.ErrDuplicate when
// Create hits an existing id, apperr.ErrConflict when the version moved, and
// apperr.ErrStoreUnavailable for anything the backend failed to do.
type Store interface {
	// Get decodes the document with the given id into out
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Create inserts doc, which must encode a non-empty string _id
	Create(ctx context.Context, collection string, doc interface{}) error
	// Update sets the given top-level fields, leaving all others untouched
	Update(ctx context.Context, collection, id string, fields bson.M) error
	// UpdateIfVersion behaves like Update but only applies when the stored
	// version still equals version
	UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields bson.M) error
	// Query decodes every document whose top-level fields equal the filter
	// values into out, which must be a pointer to a slice. A filter value
	// matches an array field when any element equals it.
	Query(ctx context.Context, collection string, filter bson.M, out interface{}) error
}
