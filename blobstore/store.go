// Package blobstore abstracts the object storage a finished artifact set is
// archived to. Stores are write-mostly here: a successful build uploads its
// artifact files once and later readers fetch them whole.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for archiving and retrieving artifact blobs.
type Store interface {
	// Put streams a blob of the given size into the store. Size may be -1
	// when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context, name string) error
}

// Committer is an optional capability: stores that support it record a
// durable marker naming a completed artifact set, written only after every
// blob of the set is uploaded.
type Committer interface {
	Commit(ctx context.Context, artifacts []string) error
}
