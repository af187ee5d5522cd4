// Package storage provides the archive object store: a small backend
// abstraction over memory, local filesystem and S3, and a Provider layering
// the satori archive layout and at-rest encryption on top of it.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("requested item not found")

// Backend is a flat key/value object store. Keys use "/" as a separator;
// there is no notion of directories beyond what List and ListPrefixes infer
// from the keys themselves.
type Backend interface {
	// Put stores data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the object stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns the sorted basenames of every object under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// ListPrefixes returns the sorted names of the immediate pseudo
	// directories under prefix.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
}
