package hashmirror

import (
	"context"
	"sync"
	"testing"

	"github.com/unkn0wn-root/hashmirror/clientpool"
	hs "github.com/unkn0wn-root/hashmirror/hashstore"
)

// memStore is an in-memory hashstore with per-operation failure injection and
// call counting.
type memStore struct {
	mu    sync.Mutex
	h     map[string]map[string]string
	calls map[string]int

	getAllErr error
	getErr    error
	setErr    error
	delErr    error
	keysErr   error
	valsErr   error
	existsErr error

	onErr  map[int]func(error)
	nextID int
}

var (
	_ hs.Store         = (*memStore)(nil)
	_ hs.ErrorNotifier = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{h: make(map[string]map[string]string), calls: make(map[string]int)}
}

func (s *memStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// raw returns the stored field text, bypassing any cache.
func (s *memStore) raw(ns, field string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.h[ns][field]
	return v, ok
}

// put writes a field directly, bypassing any cache.
func (s *memStore) put(ns, field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h[ns] == nil {
		s.h[ns] = make(map[string]string)
	}
	s.h[ns][field] = value
}

func (s *memStore) GetAll(_ context.Context, ns string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["getall"]++
	if s.getAllErr != nil {
		return nil, s.getAllErr
	}
	out := make(map[string]string, len(s.h[ns]))
	for k, v := range s.h[ns] {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, ns, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get"]++
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.h[ns][field]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, ns, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["set"]++
	if s.setErr != nil {
		return s.setErr
	}
	if s.h[ns] == nil {
		s.h[ns] = make(map[string]string)
	}
	s.h[ns][field] = value
	return nil
}

func (s *memStore) Del(_ context.Context, ns, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["del"]++
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.h[ns], field)
	return nil
}

func (s *memStore) Keys(_ context.Context, ns string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["keys"]++
	if s.keysErr != nil {
		return nil, s.keysErr
	}
	out := make([]string, 0, len(s.h[ns]))
	for k := range s.h[ns] {
		out = append(out, k)
	}
	return out, nil
}

func (s *memStore) Vals(_ context.Context, ns string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["vals"]++
	if s.valsErr != nil {
		return nil, s.valsErr
	}
	out := make([]string, 0, len(s.h[ns]))
	for _, v := range s.h[ns] {
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) Exists(_ context.Context, ns, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["exists"]++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.h[ns][field]
	return ok, nil
}

func (s *memStore) Drop(_ context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["drop"]++
	delete(s.h, ns)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) OnError(fn func(error)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onErr == nil {
		s.onErr = make(map[int]func(error))
	}
	id := s.nextID
	s.nextID++
	s.onErr[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.onErr, id)
		s.mu.Unlock()
	}
}

func (s *memStore) listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.onErr)
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	fns := make([]func(error), 0, len(s.onErr))
	for _, fn := range s.onErr {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}

// trackingProvider hands out one store and counts acquire/release.
type trackingProvider struct {
	store    hs.Store
	acquired int
	released int
	lastEP   clientpool.Endpoint
}

func (p *trackingProvider) Acquire(_ context.Context, ep clientpool.Endpoint) (hs.Store, error) {
	p.acquired++
	p.lastEP = ep
	return p.store, nil
}

func (p *trackingProvider) Release(hs.Store) error {
	p.released++
	return nil
}

type recordingHooks struct {
	mu        sync.Mutex
	selfHeals []string
	repairs   []string
	dropped   int
	setFails  int
	transport []error
	loaded    int
	repaired  int
}

func (h *recordingHooks) SelfHeal(_, key, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selfHeals = append(h.selfHeals, reason+":"+key)
}

func (h *recordingHooks) RepairFailed(_, key string, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.repairs = append(h.repairs, key)
}

func (h *recordingHooks) ValuesDropped(_ string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropped += n
}

func (h *recordingHooks) RemoteSetFailed(string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setFails++
}

func (h *recordingHooks) TransportError(_ string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transport = append(h.transport, err)
}

func (h *recordingHooks) Loaded(_ string, loaded, repaired int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded, h.repaired = loaded, repaired
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const testNS = "cacheTest"

func newTestCache[V any](t *testing.T, ms hs.Store, optsOpt func(*Options[V])) Cache[V] {
	t.Helper()
	opts := Options[V]{
		Namespace: testNS,
		Clients:   clientpool.Static(ms),
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	cc, err := Open[V](context.Background(), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close(context.Background()) })
	return cc
}

func lazy[V any](o *Options[V]) { o.Lazy = true }

// snapshotStore runs afterGetAll once GetAll has taken its snapshot, so tests can
// interleave writes between the fetch and the per-field work of Load.
type snapshotStore struct {
	*memStore
	afterGetAll func()
}

func (s *snapshotStore) GetAll(ctx context.Context, ns string) (map[string]string, error) {
	all, err := s.memStore.GetAll(ctx, ns)
	if s.afterGetAll != nil {
		s.afterGetAll()
	}
	return all, err
}
