// Package monitor implements the IFC monitor's process-wide state as a
// session-owned struct — never a global — so tests and concurrent
// sessions can each hold their own label/privilege pair. Ported from
// the thread-local current_label/current_privilege pair visible in
// the original wasmtime host runtime's RuntimeState.
package monitor

import "github.com/ddaud1/faasten-host/internal/buckle"

// Monitor holds the current label L and current privilege P for one
// session. P is set once at session start and never mutated again by
// guest-facing operations.
type Monitor struct {
	label     buckle.Label
	privilege buckle.Privilege
}

// New builds a monitor at L=public with the given caller-supplied
// privilege.
func New(privilege buckle.Privilege) *Monitor {
	return &Monitor{label: buckle.Public(), privilege: privilege}
}

// CurrentLabel is the get_current_label primitive: a pure read.
func (m *Monitor) CurrentLabel() buckle.Label {
	return m.label
}

// Privilege returns the session's current privilege. It is never
// exposed as mutable to guest code.
func (m *Monitor) Privilege() buckle.Privilege {
	return m.privilege
}

// Taint is the monotonic-secrecy primitive: L := L ⊔ L'. Returns the
// resulting label.
func (m *Monitor) Taint(other buckle.Label) buckle.Label {
	m.label = m.label.Lub(other)
	return m.label
}

// Declassify lowers secrecy to target iff (target ⊓ P) implies
// L.secrecy; on failure L is left unchanged and returned as-is. The
// meet used here is the same `&` combinator Component.And implements
// for join, per the algebra's single-operator design.
func (m *Monitor) Declassify(target buckle.Component) buckle.Label {
	if target.And(m.privilege).Implies(m.label.Secrecy) {
		m.label.Secrecy = target
	}
	return m.label
}

// DeclassifyWith is the gate/service-assisted declassify used during
// invocation: the session's own privilege is widened with extra
// (e.g. a Service's own privilege, which its creator could use to
// vouch for egress beyond what the invoking session could declassify
// alone) before the same (target ⊓ P) implies L.secrecy check runs.
func (m *Monitor) DeclassifyWith(target, extra buckle.Component) buckle.Label {
	if target.And(m.privilege.Or(extra)).Implies(m.label.Secrecy) {
		m.label.Secrecy = target
	}
	return m.label
}

// CanEndorse reports whether the session's privilege satisfies the
// invoker integrity clearance required by a gate or service.
func (m *Monitor) CanEndorse(invokerIntegrityClearance buckle.Component) bool {
	return m.privilege.Implies(invokerIntegrityClearance)
}

// CheckWrite reports whether the current label permits a write to an
// object labeled objLabel.
func (m *Monitor) CheckWrite(objLabel buckle.Label) bool {
	return m.label.Implies(objLabel)
}
