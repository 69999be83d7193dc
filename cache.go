package hashmirror

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"

	"github.com/unkn0wn-root/hashmirror/clientpool"
	c "github.com/unkn0wn-root/hashmirror/codec"
	hs "github.com/unkn0wn-root/hashmirror/hashstore"
	"github.com/unkn0wn-root/hashmirror/internal/util"
)

type cache[V any] struct {
	ns      string
	lazy    bool
	ep      clientpool.Endpoint
	clients clientpool.Provider
	store   hs.Store
	codec   c.Codec[V]
	log     Logger
	hooks   Hooks

	mirror *xsync.MapOf[string, V]
	// local writes mirrored but not yet persisted, per key
	pending *xsync.MapOf[string, int]
	// bumped whenever a local write starts or lands remotely
	writeSeq atomic.Uint64
	// serializes remote writes and fetch-decode-repair per key
	locks util.KeyLocks
	// Clear excludes Load
	clearMu sync.RWMutex

	unsubscribe func()
	closed      atomic.Bool
}

func open[V any](ctx context.Context, opts Options[V]) (*cache[V], error) {
	if opts.Namespace == "" {
		return nil, ErrNamespaceRequired
	}

	cc := &cache[V]{
		ns:     opts.Namespace,
		lazy:   opts.Lazy,
		mirror:  xsync.NewMapOf[string, V](),
		pending: xsync.NewMapOf[string, int](),
	}

	// defaults
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	cc.codec = opts.codec()
	cc.clients = opts.clients()
	cc.ep = opts.endpoint()

	store, err := cc.clients.Acquire(ctx, cc.ep)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNilStore
	}
	cc.store = store
	cc.unsubscribe = func() {}
	if n, ok := store.(hs.ErrorNotifier); ok {
		cc.unsubscribe = n.OnError(cc.transportError)
	}

	if !cc.lazy {
		if err := cc.Load(ctx); err != nil {
			cc.closed.Store(true)
			cc.unsubscribe()
			_ = cc.clients.Release(store)
			return nil, err
		}
	}
	return cc, nil
}

func (cc *cache[V]) Namespace() string { return cc.ns }
func (cc *cache[V]) Lazy() bool        { return cc.lazy }

// Close releases the store handle. Remote operations fail with ErrClosed
// afterwards; mirror-only reads keep answering from the last state.
func (cc *cache[V]) Close(_ context.Context) error {
	if !cc.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	cc.unsubscribe()
	return cc.clients.Release(cc.store)
}

// Load fetches every field of the namespace into the mirror. Fields that do not
// decode are removed from the mirror and deleted remotely. Remote values replace
// mirror values for the same key, except for keys with a local write still in
// flight.
func (cc *cache[V]) Load(ctx context.Context) error {
	if cc.closed.Load() {
		return ErrClosed
	}
	cc.clearMu.RLock()
	defer cc.clearMu.RUnlock()

	seq := cc.writeSeq.Load()
	all, err := cc.store.GetAll(ctx, cc.ns)
	if err != nil {
		return &LoadError{Namespace: cc.ns, Err: err}
	}

	var errs error
	loaded, repaired := 0, 0
	for key, raw := range all {
		res, err := cc.loadField(ctx, key, raw, seq)
		switch {
		case err != nil:
			errs = multierr.Append(errs, err)
		case res == fieldStored:
			loaded++
		case res == fieldRepaired:
			repaired++
		}
	}
	if errs != nil {
		return &LoadError{Namespace: cc.ns, Err: errs}
	}

	cc.hooks.Loaded(cc.ns, loaded, repaired)
	cc.log.Debug("namespace loaded", Fields{"ns": cc.ns, "loaded": loaded, "repaired": repaired})
	return nil
}

type fieldResult int

const (
	fieldSkipped fieldResult = iota // missing remotely or a local write is in flight
	fieldStored
	fieldRepaired
)

// loadField mirrors one field of a GetAll snapshot taken at write sequence seq.
// Once any local write has started or landed since then, the snapshot may be
// stale and the field is read again under the key lock.
func (cc *cache[V]) loadField(ctx context.Context, key, raw string, seq uint64) (fieldResult, error) {
	mu := cc.locks.For(key)
	mu.Lock()
	defer mu.Unlock()

	if cc.writeSeq.Load() != seq {
		fresh, ok, err := cc.store.Get(ctx, cc.ns, key)
		if err != nil {
			return fieldSkipped, err
		}
		if !ok {
			cc.settle(key, func() { cc.mirror.Delete(key) })
			return fieldSkipped, nil
		}
		raw = fresh
	}

	v, derr := cc.codec.Decode([]byte(raw))
	if derr == nil {
		if cc.settle(key, func() { cc.mirror.Store(key, v) }) {
			return fieldStored, nil
		}
		return fieldSkipped, nil
	}
	// a pending Set overwrites the corrupt field itself
	if !cc.settle(key, func() { cc.mirror.Delete(key) }) {
		return fieldSkipped, nil
	}
	if err := cc.repair(ctx, key, "load", derr); err != nil {
		return fieldSkipped, err
	}
	return fieldRepaired, nil
}

// settle runs fn against the mirror unless a local write of key is pending.
func (cc *cache[V]) settle(key string, fn func()) bool {
	applied := false
	cc.pending.Compute(key, func(n int, _ bool) (int, bool) {
		if n == 0 {
			fn()
			applied = true
		}
		return n, n == 0
	})
	return applied
}

// stage mirrors a local write ahead of its remote persist.
func (cc *cache[V]) stage(key string, value V) {
	cc.pending.Compute(key, func(n int, _ bool) (int, bool) {
		cc.mirror.Store(key, value)
		return n + 1, false
	})
	cc.writeSeq.Add(1)
}

func (cc *cache[V]) unstage(key string) {
	cc.pending.Compute(key, func(n int, _ bool) (int, bool) {
		return n - 1, n <= 1
	})
	cc.writeSeq.Add(1)
}

// repair deletes a corrupt field. Callers hold the key's lock.
func (cc *cache[V]) repair(ctx context.Context, key, reason string, decodeErr error) error {
	cc.log.Debug("deleting corrupt field", Fields{"ns": cc.ns, "key": key, "reason": reason, "err": decodeErr})
	if err := cc.store.Del(ctx, cc.ns, key); err != nil {
		cc.hooks.RepairFailed(cc.ns, key, err)
		cc.log.Warn("delete of corrupt field failed", Fields{"ns": cc.ns, "key": key, "err": err})
		return &RepairError{Namespace: cc.ns, Key: key, Err: err}
	}
	cc.hooks.SelfHeal(cc.ns, key, reason)
	return nil
}

// Set stores value in the mirror, then writes it remotely and returns the remote
// result. The mirror keeps value even if the remote write fails. A value that
// does not encode is rejected before the mirror is touched.
func (cc *cache[V]) Set(ctx context.Context, key string, value V) error {
	if cc.closed.Load() {
		return ErrClosed
	}
	raw, err := cc.codec.Encode(value)
	if err != nil {
		return err
	}
	cc.stage(key, value)
	return cc.persist(ctx, key, raw)
}

// SetAsync is Set with the remote write running in the background. The mirror is
// updated before SetAsync returns. The returned channel receives exactly one
// result and is buffered, so it may be ignored.
func (cc *cache[V]) SetAsync(ctx context.Context, key string, value V) <-chan error {
	done := make(chan error, 1)
	if cc.closed.Load() {
		done <- ErrClosed
		return done
	}
	raw, err := cc.codec.Encode(value)
	if err != nil {
		done <- err
		return done
	}
	cc.stage(key, value)

	go func() {
		err := cc.persist(ctx, key, raw)
		if err != nil {
			cc.hooks.RemoteSetFailed(cc.ns, key, err)
			cc.log.Warn("background set failed; mirror kept local value", Fields{"ns": cc.ns, "key": key, "err": err})
		}
		done <- err
	}()
	return done
}

// persist writes a staged value. The stage is released under the key lock, so a
// Load that takes the lock next sees the write sequence moved.
func (cc *cache[V]) persist(ctx context.Context, key string, raw []byte) error {
	mu := cc.locks.For(key)
	mu.Lock()
	defer mu.Unlock()
	defer cc.unstage(key)
	return cc.store.Set(ctx, cc.ns, key, string(raw))
}

func (cc *cache[V]) Delete(ctx context.Context, key string) error {
	if cc.closed.Load() {
		return ErrClosed
	}
	mu := cc.locks.For(key)
	mu.Lock()
	defer mu.Unlock()
	cc.writeSeq.Add(1)
	cc.mirror.Delete(key)
	return cc.store.Del(ctx, cc.ns, key)
}

// Clear empties the mirror and drops the remote namespace.
func (cc *cache[V]) Clear(ctx context.Context) error {
	if cc.closed.Load() {
		return ErrClosed
	}
	cc.clearMu.Lock()
	defer cc.clearMu.Unlock()
	cc.writeSeq.Add(1)
	cc.mirror.Clear()
	return cc.store.Drop(ctx, cc.ns)
}

// Get answers from the mirror when it can. On a miss it reads the remote field:
// a decodable value is mirrored and returned; a corrupt one is deleted and
// reported as absent, or, if the delete fails, as a *RepairError.
func (cc *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if cc.closed.Load() {
		return zero, false, ErrClosed
	}
	if v, ok := cc.mirror.Load(key); ok {
		return v, true, nil
	}

	mu := cc.locks.For(key)
	mu.Lock()
	defer mu.Unlock()

	// a Set may have landed while we waited
	if v, ok := cc.mirror.Load(key); ok {
		return v, true, nil
	}

	raw, ok, err := cc.store.Get(ctx, cc.ns, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := cc.codec.Decode([]byte(raw))
	if err != nil {
		if rerr := cc.repair(ctx, key, "get", err); rerr != nil {
			return zero, false, rerr
		}
		return zero, false, nil
	}
	// a concurrent local write wins over what we just read
	v, _ = cc.mirror.LoadOrStore(key, v)
	return v, true, nil
}

// Has reports mirror membership, falling back to the remote store. A remote error
// reports false.
func (cc *cache[V]) Has(ctx context.Context, key string) bool {
	if cc.closed.Load() {
		return false
	}
	if _, ok := cc.mirror.Load(key); ok {
		return true
	}
	ok, err := cc.store.Exists(ctx, cc.ns, key)
	if err != nil {
		cc.log.Debug("exists failed; reporting absent", Fields{"ns": cc.ns, "key": key, "err": err})
		return false
	}
	return ok
}

// Keys lists the remote field names. The mirror is not consulted.
func (cc *cache[V]) Keys(ctx context.Context) ([]string, error) {
	if cc.closed.Load() {
		return nil, ErrClosed
	}
	return cc.store.Keys(ctx, cc.ns)
}

// Values decodes every remote value. Undecodable payloads are skipped: no error,
// no delete, no mirror change.
func (cc *cache[V]) Values(ctx context.Context) ([]V, error) {
	if cc.closed.Load() {
		return nil, ErrClosed
	}
	raws, err := cc.store.Vals(ctx, cc.ns)
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		v, err := cc.codec.Decode([]byte(raw))
		if err != nil {
			dropped++
			continue
		}
		out = append(out, v)
	}
	if dropped > 0 {
		cc.hooks.ValuesDropped(cc.ns, dropped)
		cc.log.Debug("values skipped undecodable payloads", Fields{"ns": cc.ns, "dropped": dropped})
	}
	return out, nil
}

func (cc *cache[V]) GetLocal(key string) (V, bool) {
	return cc.mirror.Load(key)
}

func (cc *cache[V]) HasLocal(key string) bool {
	_, ok := cc.mirror.Load(key)
	return ok
}

func (cc *cache[V]) KeysLocal() []string {
	out := make([]string, 0, cc.mirror.Size())
	cc.mirror.Range(func(k string, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

func (cc *cache[V]) ValuesLocal() []V {
	out := make([]V, 0, cc.mirror.Size())
	cc.mirror.Range(func(_ string, v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (cc *cache[V]) Len() int { return cc.mirror.Size() }

// All iterates the mirror. Keys and values are paired; order is unspecified.
func (cc *cache[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		cc.mirror.Range(yield)
	}
}

func (cc *cache[V]) transportError(err error) {
	if cc.closed.Load() {
		return
	}
	cc.hooks.TransportError(cc.ns, err)
	cc.log.Error("hash store transport error", Fields{"ns": cc.ns, "err": err})
}
