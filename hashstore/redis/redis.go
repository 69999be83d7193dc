package redis

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	hs "github.com/unkn0wn-root/hashmirror/hashstore"
)

var ErrNilClient = errors.New("redis hashstore: nil client")

// Store maps the hashstore contract onto redis hashes (HGET/HSET/HDEL...).
type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool

	mu        sync.RWMutex
	listeners map[uint64]func(error)
	nextID    uint64
	closeOnce sync.Once
}

var (
	_ hs.Store         = (*Store)(nil)
	_ hs.ErrorNotifier = (*Store)(nil)
)

// Config dials a dedicated client. The resulting Store owns it.
type Config struct {
	Host         string // "" => localhost
	Port         int    // 0 => 6379
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int // 0 => go-redis default
}

func (c Config) addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func New(cfg Config) *Store {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.addr(),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	s := &Store{rdb: rdb, closeClient: true}
	rdb.AddHook(errorHook{s: s})
	return s
}

// NewFromClient wraps an existing client. Set closeClient only if this store
// exclusively owns the client.
func NewFromClient(client goredis.UniversalClient, closeClient bool) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	s := &Store{rdb: client, closeClient: closeClient}
	client.AddHook(errorHook{s: s})
	return s, nil
}

func (s *Store) GetAll(ctx context.Context, ns string) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, ns).Result()
}

func (s *Store) Get(ctx context.Context, ns, field string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, ns, field).Result()
	if err == goredis.Nil {
		return "", false, nil // miss
	}
	if err != nil {
		return "", false, err // transport/server error
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, ns, field, value string) error {
	return s.rdb.HSet(ctx, ns, field, value).Err()
}

func (s *Store) Del(ctx context.Context, ns, field string) error {
	return s.rdb.HDel(ctx, ns, field).Err()
}

func (s *Store) Keys(ctx context.Context, ns string) ([]string, error) {
	return s.rdb.HKeys(ctx, ns).Result()
}

func (s *Store) Vals(ctx context.Context, ns string) ([]string, error) {
	return s.rdb.HVals(ctx, ns).Result()
}

func (s *Store) Exists(ctx context.Context, ns, field string) (bool, error) {
	return s.rdb.HExists(ctx, ns, field).Result()
}

func (s *Store) Drop(ctx context.Context, ns string) error {
	return s.rdb.Del(ctx, ns).Err()
}

// OnError subscribes fn to connection-level failures (dial errors).
func (s *Store) OnError(fn func(error)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[uint64]func(error))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) listenerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Store) notify(err error) {
	s.mu.RLock()
	ls := make([]func(error), 0, len(s.listeners))
	for _, fn := range s.listeners {
		ls = append(ls, fn)
	}
	s.mu.RUnlock()
	for _, fn := range ls {
		fn(err)
	}
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closeClient {
			if cerr := s.rdb.Close(); cerr != nil && !errors.Is(cerr, goredis.ErrClosed) {
				err = cerr
			}
		}
	})
	return err
}

// errorHook forwards dial failures to OnError subscribers. Command errors are
// returned to the caller and are not duplicated here.
type errorHook struct{ s *Store }

func (h errorHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil && ctx.Err() == nil {
			h.s.notify(err)
		}
		return conn, err
	}
}

func (h errorHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return next
}

func (h errorHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}
