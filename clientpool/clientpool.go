// Package clientpool hands out hash-store handles per endpoint and takes them back.
//
// A Pool shares one Store per Endpoint between every cache that asks for it and
// closes the Store when the last holder releases it.
package clientpool

import (
	"context"
	"errors"
	"sync"
	"time"

	hs "github.com/unkn0wn-root/hashmirror/hashstore"
	rs "github.com/unkn0wn-root/hashmirror/hashstore/redis"
)

var (
	ErrUnknownStore = errors.New("clientpool: store was not acquired from this pool")
	ErrNilDialer    = errors.New("clientpool: nil dialer")
)

// StoreOptions are the store-specific connection options. The zero value means
// "use the driver defaults".
type StoreOptions struct {
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// Endpoint identifies one remote store. Comparable; used as the sharing key.
type Endpoint struct {
	Host    string
	Port    int
	Options StoreOptions
}

// Provider acquires and releases store handles.
type Provider interface {
	Acquire(ctx context.Context, ep Endpoint) (hs.Store, error)
	Release(s hs.Store) error
}

// Dialer opens a new store for ep.
type Dialer func(ctx context.Context, ep Endpoint) (hs.Store, error)

type entry struct {
	ep    Endpoint
	store hs.Store
	refs  int
}

// Pool is a reference-counted Provider.
type Pool struct {
	dial Dialer

	mu      sync.Mutex
	byEP    map[Endpoint]*entry
	byStore map[hs.Store]*entry
}

var _ Provider = (*Pool)(nil)

func New(dial Dialer) (*Pool, error) {
	if dial == nil {
		return nil, ErrNilDialer
	}
	return &Pool{
		dial:    dial,
		byEP:    make(map[Endpoint]*entry),
		byStore: make(map[hs.Store]*entry),
	}, nil
}

func (p *Pool) Acquire(ctx context.Context, ep Endpoint) (hs.Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byEP[ep]; ok {
		e.refs++
		return e.store, nil
	}
	s, err := p.dial(ctx, ep)
	if err != nil {
		return nil, err
	}
	e := &entry{ep: ep, store: s, refs: 1}
	p.byEP[ep] = e
	p.byStore[s] = e
	return s, nil
}

func (p *Pool) Release(s hs.Store) error {
	p.mu.Lock()
	e, ok := p.byStore[s]
	if !ok {
		p.mu.Unlock()
		return ErrUnknownStore
	}
	e.refs--
	if e.refs > 0 {
		p.mu.Unlock()
		return nil
	}
	delete(p.byStore, s)
	delete(p.byEP, e.ep)
	p.mu.Unlock()

	return s.Close()
}

// Refs reports how many holders currently share the store for ep.
func (p *Pool) Refs(ep Endpoint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.byEP[ep]; ok {
		return e.refs
	}
	return 0
}

// DialRedis opens a dedicated go-redis backed store for ep.
func DialRedis(_ context.Context, ep Endpoint) (hs.Store, error) {
	return rs.New(rs.Config{
		Host:         ep.Host,
		Port:         ep.Port,
		Username:     ep.Options.Username,
		Password:     ep.Options.Password,
		DB:           ep.Options.DB,
		DialTimeout:  ep.Options.DialTimeout,
		ReadTimeout:  ep.Options.ReadTimeout,
		WriteTimeout: ep.Options.WriteTimeout,
		PoolSize:     ep.Options.PoolSize,
	}), nil
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool dialing redis.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool, _ = New(DialRedis)
	})
	return defaultPool
}

// Static always hands out the same store and never closes it. The caller keeps
// ownership; handy for tests and for embedding a pre-built client.
func Static(s hs.Store) Provider { return static{s: s} }

type static struct{ s hs.Store }

func (p static) Acquire(context.Context, Endpoint) (hs.Store, error) { return p.s, nil }
func (p static) Release(hs.Store) error                             { return nil }
