package dent

import (
	"fmt"

	"github.com/ddaud1/faasten-host/internal/obslog"
)

// ErrorKind is the closed set of failure reasons observable at the
// syscall boundary. Every failure is folded into a DentResult with
// Success=false; nothing here is fatal to the session.
type ErrorKind string

const (
	BadHandle            ErrorKind = "BadHandle"
	KindMismatch         ErrorKind = "KindMismatch"
	LabelDenied          ErrorKind = "LabelDenied"
	StoreFailure         ErrorKind = "StoreFailure"
	SchedulerUnreachable ErrorKind = "SchedulerUnreachable"
	HttpTransport        ErrorKind = "HttpTransport"
	BadUrlArgs           ErrorKind = "BadUrlArgs"
	BadInput             ErrorKind = "BadInput"
)

// Error pairs an ErrorKind with a human-readable message. Failing
// operations themselves return a Result whose Err field holds the
// ErrorKind; fail logs that kind.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func errf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// isTransportFailure is the subset of ErrorKind that reflects a
// collaborator (store, scheduler, egress) misbehaving rather than a
// caller mistake; these log at Error, everything else at Warn.
func isTransportFailure(kind ErrorKind) bool {
	switch kind {
	case StoreFailure, SchedulerUnreachable, HttpTransport:
		return true
	default:
		return false
	}
}

// fail builds a failing Result tagged with kind and logs the outcome
// at the level the error taxonomy calls for, under the syscall that
// was re-entering the processor when it failed.
func (p *Processor) fail(kind ErrorKind) Result {
	l := obslog.WithSyscall(p.currentSyscall)
	if isTransportFailure(kind) {
		l.Error().Str("error_kind", string(kind)).Msg("syscall failed")
	} else {
		l.Warn().Str("error_kind", string(kind)).Msg("syscall failed")
	}
	return fail(kind)
}
