// Package metrics counts cache events in a VictoriaMetrics set.
package metrics

import (
	"fmt"
	"io"

	vm "github.com/VictoriaMetrics/metrics"

	"github.com/unkn0wn-root/hashmirror"
)

// Hooks increments one counter family per event, labelled by namespace.
type Hooks struct {
	set *vm.Set
}

var _ hashmirror.Hooks = (*Hooks)(nil)

// New registers counters in set. A nil set gets a private one.
func New(set *vm.Set) *Hooks {
	if set == nil {
		set = vm.NewSet()
	}
	return &Hooks{set: set}
}

func (h *Hooks) Set() *vm.Set { return h.set }

// WritePrometheus writes every counter in text exposition format.
func (h *Hooks) WritePrometheus(w io.Writer) { h.set.WritePrometheus(w) }

func (h *Hooks) counter(name, ns string, extra ...string) *vm.Counter {
	labels := fmt.Sprintf("ns=%q", ns)
	for i := 0; i+1 < len(extra); i += 2 {
		labels += fmt.Sprintf(",%s=%q", extra[i], extra[i+1])
	}
	return h.set.GetOrCreateCounter(name + "{" + labels + "}")
}

func (h *Hooks) SelfHeal(ns, _, reason string) {
	h.counter("hashmirror_self_heal_total", ns, "reason", reason).Inc()
}

func (h *Hooks) RepairFailed(ns, _ string, _ error) {
	h.counter("hashmirror_repair_failed_total", ns).Inc()
}

func (h *Hooks) ValuesDropped(ns string, n int) {
	h.counter("hashmirror_values_dropped_total", ns).Add(n)
}

func (h *Hooks) RemoteSetFailed(ns, _ string, _ error) {
	h.counter("hashmirror_remote_set_failed_total", ns).Inc()
}

func (h *Hooks) TransportError(ns string, _ error) {
	h.counter("hashmirror_transport_errors_total", ns).Inc()
}

func (h *Hooks) Loaded(ns string, loaded, repaired int) {
	h.counter("hashmirror_loads_total", ns).Inc()
	h.counter("hashmirror_loaded_fields_total", ns).Add(loaded)
	h.counter("hashmirror_loaded_repaired_total", ns).Add(repaired)
}
