// Package metrics wires a private prometheus.Registry (never the
// global default, never served over the network — the core's
// non-goal of "no network-facing listener" holds) recording syscall
// volume, taint/declassify activity, gate outcomes, and blob bytes
// written. The CLI dumps it to a file via expfmt after the session
// completes, the same one-shot-write distinction the teacher draws
// between its always-on Collector and its network-facing /metrics
// handler.
package metrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry bundles every counter this host records, each registered
// against its own private prometheus.Registry instance.
type Registry struct {
	reg *prometheus.Registry

	SyscallsTotal        *prometheus.CounterVec
	TaintEvents          prometheus.Counter
	DeclassifyAttempts   prometheus.Counter
	DeclassifySuccesses  prometheus.Counter
	GateInvocationsTotal *prometheus.CounterVec
	BlobBytesWritten     prometheus.Counter
}

// New builds and registers every metric.
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		SyscallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasten_syscalls_total",
			Help: "Syscalls dispatched, by name.",
		}, []string{"syscall"}),
		TaintEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faasten_taint_events_total",
			Help: "Number of times the current label was raised.",
		}),
		DeclassifyAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faasten_declassify_attempts_total",
			Help: "Number of declassify calls attempted.",
		}),
		DeclassifySuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faasten_declassify_successes_total",
			Help: "Number of declassify calls that succeeded.",
		}),
		GateInvocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "faasten_gate_invocations_total",
			Help: "Gate and service invocations, by outcome.",
		}, []string{"outcome"}),
		BlobBytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "faasten_blob_bytes_written_total",
			Help: "Bytes appended across all blob_write calls.",
		}),
	}
	reg.MustRegister(m.SyscallsTotal, m.TaintEvents, m.DeclassifyAttempts,
		m.DeclassifySuccesses, m.GateInvocationsTotal, m.BlobBytesWritten)
	return m
}

// DumpToFile writes every collected metric family in Prometheus text
// format to path. This is a single write, not a listener.
func (m *Registry) DumpToFile(path string) error {
	families, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metrics: create %s: %w", path, err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode: %w", err)
		}
	}
	return nil
}
