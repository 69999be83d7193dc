package local

import (
	"context"
	"errors"
	"sync"

	hs "github.com/unkn0wn-root/hashmirror/hashstore"
)

var ErrClosed = errors.New("local hashstore: closed")

// Store keeps namespaces in-process. Useful for single-process deployments and
// tests; nothing survives a restart.
type Store struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	closed bool
}

var _ hs.Store = (*Store)(nil)

func New() *Store {
	return &Store{hashes: make(map[string]map[string]string)}
}

func (s *Store) GetAll(_ context.Context, ns string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	h := s.hashes[ns]
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, ns, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.hashes[ns][field]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, ns, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	h, ok := s.hashes[ns]
	if !ok {
		h = make(map[string]string)
		s.hashes[ns] = h
	}
	h[field] = value
	return nil
}

func (s *Store) Del(_ context.Context, ns, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if h, ok := s.hashes[ns]; ok {
		delete(h, field)
		if len(h) == 0 {
			delete(s.hashes, ns) // redis drops empty hashes too
		}
	}
	return nil
}

func (s *Store) Keys(_ context.Context, ns string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	h := s.hashes[ns]
	out := make([]string, 0, len(h))
	for k := range h {
		out = append(out, k)
	}
	return out, nil
}

func (s *Store) Vals(_ context.Context, ns string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	h := s.hashes[ns]
	out := make([]string, 0, len(h))
	for _, v := range h {
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) Exists(_ context.Context, ns, field string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.hashes[ns][field]
	return ok, nil
}

func (s *Store) Drop(_ context.Context, ns string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.hashes, ns)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
