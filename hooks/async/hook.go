// Package asynchook moves hook delivery off the cache's call path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, err := hashmirror.Open[User](ctx, hashmirror.Options[User]{
//	    Namespace: "app:users",
//	    Hooks:     hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/hashmirror"
)

// Hooks forwards events to inner on a bounded queue. Events are dropped when the
// queue is full or after Close.
type Hooks struct {
	inner hashmirror.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ hashmirror.Hooks = (*Hooks)(nil)

func New(inner hashmirror.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = hashmirror.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) SelfHeal(ns, k, r string) { h.try(func() { h.inner.SelfHeal(ns, k, r) }) }
func (h *Hooks) ValuesDropped(ns string, n int) {
	h.try(func() { h.inner.ValuesDropped(ns, n) })
}
func (h *Hooks) RepairFailed(ns, k string, err error) {
	h.try(func() { h.inner.RepairFailed(ns, k, err) })
}
func (h *Hooks) RemoteSetFailed(ns, k string, err error) {
	h.try(func() { h.inner.RemoteSetFailed(ns, k, err) })
}
func (h *Hooks) TransportError(ns string, err error) {
	h.try(func() { h.inner.TransportError(ns, err) })
}
func (h *Hooks) Loaded(ns string, loaded, repaired int) {
	h.try(func() { h.inner.Loaded(ns, loaded, repaired) })
}
