package buckle

import (
	"fmt"
	"strings"
)

// Label is a (secrecy, integrity) pair. Secrecy controls who may read
// the data it tags; integrity controls who may have written it.
type Label struct {
	Secrecy   Component
	Integrity Component
}

// Public is the bottom label: no secrecy restriction, no integrity
// restriction. Every session starts here.
func Public() Label {
	return Label{Secrecy: DCTrue(), Integrity: DCTrue()}
}

// Privilege is a component presented by a session or a gate to justify
// declassification or endorsement. It shares Component's algebra.
type Privilege = Component

// Lub joins two labels fieldwise: the result is at least as secret and
// at least as integrity-sensitive as either operand. This is the
// taint operation.
func (l Label) Lub(other Label) Label {
	return Label{
		Secrecy:   l.Secrecy.And(other.Secrecy),
		Integrity: l.Integrity.And(other.Integrity),
	}
}

// Equal reports whether both components match exactly.
func (l Label) Equal(other Label) bool {
	return l.Secrecy.Equal(other.Secrecy) && l.Integrity.Equal(other.Integrity)
}

// Implies reports whether l flows to other: l can be treated as if it
// carried other's label without violating confidentiality or
// integrity, i.e. both components individually imply.
func (l Label) Implies(other Label) bool {
	return l.Secrecy.Implies(other.Secrecy) && l.Integrity.Implies(other.Integrity)
}

// String renders "secrecy,integrity".
func (l Label) String() string {
	return fmt.Sprintf("%s,%s", l.Secrecy.String(), l.Integrity.String())
}

// Parse parses the "secrecy,integrity" syntax produced by String. It
// is the guest-facing buckle_parse primitive: returns ok=false rather
// than an error, matching the pure-parse contract in spec.
func Parse(s string) (Label, bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Label{}, false
	}
	sec, ok := ParseComponent(parts[0])
	if !ok {
		return Label{}, false
	}
	integ, ok := ParseComponent(parts[1])
	if !ok {
		return Label{}, false
	}
	return Label{Secrecy: sec, Integrity: integ}, true
}
