package hashmirror

import (
	"context"
	"iter"

	"github.com/unkn0wn-root/hashmirror/clientpool"
	c "github.com/unkn0wn-root/hashmirror/codec"
)

// Cache is a write-through mirror of one remote namespace.
// V is the caller's value type. Serialization is handled by a pluggable Codec[V].
type Cache[V any] interface {
	Namespace() string
	Lazy() bool
	Close(context.Context) error

	// Writes: mirror first, then remote.
	Set(ctx context.Context, key string, value V) error
	SetAsync(ctx context.Context, key string, value V) <-chan error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// Reads that may reach the remote store.
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	Has(ctx context.Context, key string) bool
	Keys(ctx context.Context) ([]string, error)
	Values(ctx context.Context) ([]V, error)
	Load(ctx context.Context) error

	// Mirror only; never touch the remote store.
	GetLocal(key string) (v V, ok bool)
	HasLocal(key string) bool
	KeysLocal() []string
	ValuesLocal() []V
	Len() int
	All() iter.Seq2[string, V]
}

// Options configure Open. Only Namespace is required.
type Options[V any] struct {
	// Required
	Namespace string // remote hash holding every field of this cache

	Host  string                  // "" => localhost
	Port  int                     // 0 => 6379
	Store clientpool.StoreOptions // credentials, db, timeouts

	Lazy    bool                // default false => eager load in Open
	Codec   c.Codec[V]          // nil => codec.JSON[V]
	Clients clientpool.Provider // nil => clientpool.Default() (shared redis pool)
	Logger  Logger              // nil => NopLogger
	Hooks   Hooks               // nil => NopHooks
}

// Open acquires a store handle and, unless opts.Lazy, loads the whole namespace.
// A failed eager load returns a *LoadError and releases the handle.
func Open[V any](ctx context.Context, opts Options[V]) (Cache[V], error) {
	cc, err := open[V](ctx, opts)
	if err != nil {
		return nil, err
	}
	return cc, nil
}
