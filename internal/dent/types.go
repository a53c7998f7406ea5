// Package dent implements the directory-entry engine (C3), the blob
// builder's handle-facing half (C4), and gate/service invocation (C5):
// everything that turns a syscall into a store/blob/scheduler/HTTP
// operation under the IFC monitor's supervision.
package dent

import "github.com/ddaud1/faasten-host/internal/buckle"

// Kind tags which of the six directory-entry variants a handle
// refers to. Go has no closed sum types, so DirEntry plus Kind plays
// that role: add a new kind by extending this tag, never by
// subclassing.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
	KindFacetedDirectory
	KindGate
	KindService
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "Directory"
	case KindFile:
		return "File"
	case KindFacetedDirectory:
		return "FacetedDirectory"
	case KindGate:
		return "Gate"
	case KindService:
		return "Service"
	case KindBlob:
		return "Blob"
	default:
		return "Unknown"
	}
}

// DirEntry is a session handle's lightweight pointer into the
// persistent store: a kind tag plus the object-ref the store record
// lives under. The handle id itself never escapes the session.
type DirEntry struct {
	Kind Kind
	Ref  string
}

// Result is the uniform shape every C3/C4 operation returns to the
// dispatcher.
type Result struct {
	Success bool              `json:"success"`
	Fd      *uint64           `json:"fd,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Data    []byte            `json:"data,omitempty"`
	Len     *int64            `json:"len,omitempty"`
	Entries []ListEntry       `json:"entries,omitempty"`
	Facets  []string          `json:"facets,omitempty"`
	Gate    *GateView         `json:"gate,omitempty"`
	Headers map[string][]byte `json:"headers,omitempty"`
	Err     ErrorKind         `json:"error,omitempty"`
}

// ListEntry is one (name, kind) pair returned by dent_list.
type ListEntry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// GateView is the client-visible shape returned by dent_ls_gate.
type GateView struct {
	Direct   *DirectGateView   `json:"direct,omitempty"`
	Redirect *RedirectGateView `json:"redirect,omitempty"`
}

// DirectGateView surfaces the two blob handles opened for the caller.
type DirectGateView struct {
	InvokerIntegrityClearance buckle.Component `json:"invoker_integrity_clearance"`
	AppImageFd                uint64           `json:"app_image_fd"`
	RuntimeImageFd             uint64          `json:"runtime_image_fd"`
	Memory                     uint64          `json:"memory"`
}

// RedirectGateView surfaces the nested gate shape; InnerGateFd is the
// fresh dent handle opened for the inner gate (see DESIGN.md's
// Redirect inner-fd Open Question decision).
type RedirectGateView struct {
	InvokerIntegrityClearance buckle.Component `json:"invoker_integrity_clearance"`
	InnerGateFd               uint64           `json:"inner_gate_fd"`
}

func fail(kind ErrorKind) Result {
	return Result{Success: false, Err: kind}
}

func ok() Result {
	return Result{Success: true}
}

func okFd(fd uint64) Result {
	return Result{Success: true, Fd: &fd}
}
