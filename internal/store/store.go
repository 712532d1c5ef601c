// Package store abstracts the shared key-addressed document store the
// rooms live in: revisioned reads, compare-and-set writes, and a change
// feed per key. Two implementations ship: an in-process one and a
// Redis-backed one.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")
var ErrExists = errors.New("key already exists")
var ErrConflict = errors.New("revision conflict")
var ErrUnavailable = errors.New("store unavailable")

// Snapshot pairs a document with the revision it was read at. Revisions
// start at 0 on creation and increase by exactly 1 per accepted write.
type Snapshot[T any] struct {
	Revision int64
	Doc      T
}

type Store[T any] interface {
	// Get returns the current snapshot, or ErrNotFound.
	Get(ctx context.Context, key string) (Snapshot[T], error)

	// Create writes a fresh document at revision 0, or ErrExists.
	Create(ctx context.Context, key string, doc T) (Snapshot[T], error)

	// CompareAndSet commits doc only if the stored revision still equals
	// expected; otherwise ErrConflict. Subscribers of the key are
	// notified of the committed snapshot.
	CompareAndSet(ctx context.Context, key string, expected int64, doc T) (Snapshot[T], error)

	// Delete removes the key. Deleting an absent key is ErrNotFound.
	Delete(ctx context.Context, key string) error

	// Subscribe registers a change feed for the key. Sends never block
	// a writer: a lagging receiver drops snapshots and should re-Get to
	// resync.
	Subscribe(key string) <-chan Snapshot[T]

	// Unsubscribe tears the feed down and closes its channel.
	Unsubscribe(key string, ch <-chan Snapshot[T])

	Close() error
}
