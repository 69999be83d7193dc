// Package sloghooks logs cache events through log/slog.
package sloghooks

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/unkn0wn-root/hashmirror"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	DroppedEvery  uint64
	// Optional key redactor. Defaults to a 64-bit xxhash in hex.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	droppedCtr  atomic.Uint64
}

var _ hashmirror.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return strconv.FormatUint(xxhash.Sum64String(k), 16)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(ns, key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("hashmirror.self_heal",
		"ns", ns,
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) RepairFailed(ns, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("hashmirror.repair_failed",
		"ns", ns,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) ValuesDropped(ns string, n int) {
	if h.l == nil || !sample(h.opts.DroppedEvery, &h.droppedCtr) {
		return
	}
	h.l.Info("hashmirror.values_dropped",
		"ns", ns,
		"dropped", n)
}

func (h *Hooks) RemoteSetFailed(ns, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("hashmirror.remote_set_failed",
		"ns", ns,
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) TransportError(ns string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("hashmirror.transport_error",
		"ns", ns,
		"err", err)
}

func (h *Hooks) Loaded(ns string, loaded, repaired int) {
	if h.l == nil {
		return
	}
	h.l.Info("hashmirror.loaded",
		"ns", ns,
		"loaded", loaded,
		"repaired", repaired)
}
