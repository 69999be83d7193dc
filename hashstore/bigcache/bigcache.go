// Package bigcache implements hashstore.Store on top of allegro/bigcache.
//
// Fields are flattened to "<ns>\x00<field>" entries. Whole-namespace operations
// (GetAll, Keys, Vals, Drop) walk the bigcache iterator, so they cost O(entries).
// Entries expire after LifeWindow; use it only where losing the durable copy after
// that window is acceptable.
package bigcache

import (
	"context"
	"errors"
	"strings"
	"time"

	bc "github.com/allegro/bigcache/v3"

	hs "github.com/unkn0wn-root/hashmirror/hashstore"
)

const sep = "\x00"

type Store struct {
	c *bc.BigCache
}

var _ hs.Store = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration // 0 => 24h
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = 24 * time.Hour
	}
	conf := bc.DefaultConfig(life)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	conf.Verbose = false
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func entryKey(ns, field string) string { return ns + sep + field }

// each calls fn for every field of ns.
func (s *Store) each(ns string, fn func(field string, value []byte)) error {
	prefix := ns + sep
	it := s.c.Iterator()
	for it.SetNext() {
		e, err := it.Value()
		if err != nil {
			// entry vanished between SetNext and Value
			if errors.Is(err, bc.ErrInvalidIteratorState) || errors.Is(err, bc.ErrCannotRetrieveEntry) {
				continue
			}
			return err
		}
		if k := e.Key(); strings.HasPrefix(k, prefix) {
			fn(k[len(prefix):], e.Value())
		}
	}
	return nil
}

func (s *Store) GetAll(_ context.Context, ns string) (map[string]string, error) {
	out := make(map[string]string)
	err := s.each(ns, func(f string, v []byte) { out[f] = string(v) })
	return out, err
}

func (s *Store) Get(_ context.Context, ns, field string) (string, bool, error) {
	b, err := s.c.Get(entryKey(ns, field))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *Store) Set(_ context.Context, ns, field, value string) error {
	return s.c.Set(entryKey(ns, field), []byte(value))
}

func (s *Store) Del(_ context.Context, ns, field string) error {
	err := s.c.Delete(entryKey(ns, field))
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (s *Store) Keys(_ context.Context, ns string) ([]string, error) {
	var out []string
	err := s.each(ns, func(f string, _ []byte) { out = append(out, f) })
	return out, err
}

func (s *Store) Vals(_ context.Context, ns string) ([]string, error) {
	var out []string
	err := s.each(ns, func(_ string, v []byte) { out = append(out, string(v)) })
	return out, err
}

func (s *Store) Exists(ctx context.Context, ns, field string) (bool, error) {
	_, ok, err := s.Get(ctx, ns, field)
	return ok, err
}

func (s *Store) Drop(ctx context.Context, ns string) error {
	fields, err := s.Keys(ctx, ns)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := s.Del(ctx, ns, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.c.Close()
}
