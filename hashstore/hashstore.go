// Package hashstore defines the remote hash-store abstraction used by hashmirror.
//
// A namespace is one hash (a single top-level key in redis terms); fields are the
// hash members. Implementations MUST be byte-for-byte transparent: Get must return
// exactly the string previously passed to Set for a field. hashmirror treats any
// value it cannot decode as corruption and deletes it.
package hashstore

import (
	"context"
)

// Store is the capability set hashmirror needs from a remote hash store.
// Must be safe for concurrent use.
type Store interface {
	// GetAll returns every field of the namespace. A missing namespace yields an
	// empty map and no error.
	GetAll(ctx context.Context, ns string) (map[string]string, error)

	// Get returns (value, true, nil) on hit; ("", false, nil) on miss.
	// If an IO/remote error happens, return ("", false, err).
	Get(ctx context.Context, ns, field string) (string, bool, error)

	Set(ctx context.Context, ns, field, value string) error

	// Del removes one field. Deleting a missing field is not an error.
	Del(ctx context.Context, ns, field string) error

	Keys(ctx context.Context, ns string) ([]string, error)
	Vals(ctx context.Context, ns string) ([]string, error)
	Exists(ctx context.Context, ns, field string) (bool, error)

	// Drop removes the whole namespace.
	Drop(ctx context.Context, ns string) error

	// Close releases resources.
	Close() error
}

// ErrorNotifier is implemented by stores that can report transport errors not tied
// to a specific call (for example a dropped connection). fn may be called from any
// goroutine and must not block. The returned func removes the subscription; it is
// safe to call more than once.
type ErrorNotifier interface {
	OnError(fn func(error)) (unsubscribe func())
}
