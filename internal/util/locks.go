package util

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const stripes = 64 // power of two

// KeyLocks is a fixed set of mutexes striped by key hash. Two keys may share a
// stripe; one key always maps to the same stripe.
type KeyLocks struct {
	mu [stripes]sync.Mutex
}

// For returns the mutex guarding key.
func (l *KeyLocks) For(key string) *sync.Mutex {
	return &l.mu[xxhash.Sum64String(key)&(stripes-1)]
}
