// Package scheduler is the byte-stream client for the scheduler leg of
// gate invocation: a single in-flight request/response, each framed as
// a 4-byte big-endian length prefix around a JSON payload, matching
// spec.md §6's "request/response over a byte stream" contract.
package scheduler

import "github.com/ddaud1/faasten-host/internal/buckle"

// LabeledInvoke is the request sent for every dent_invoke on a Gate.
type LabeledInvoke struct {
	Function      FunctionRef       `json:"function"`
	Label         buckle.Label      `json:"label"`
	GatePrivilege buckle.Component  `json:"gate_privilege"`
	Payload       []byte            `json:"payload,omitempty"`
	Headers       map[string][]byte `json:"headers,omitempty"`
	Sync          bool              `json:"sync"`
	Invoker       buckle.Component  `json:"invoker"`
}

// FunctionRef names the app/runtime image pair and memory budget a
// Direct gate resolved.
type FunctionRef struct {
	AppImage     string `json:"app_image"`
	RuntimeImage string `json:"runtime_image"`
	Memory       uint64 `json:"memory"`
}

// Code is the scheduler's outcome tag for a TaskReturn.
type Code int

const (
	Success Code = iota
	Failure
)

// TaskReturn is the scheduler's response to a sync invocation.
type TaskReturn struct {
	Code    Code         `json:"code"`
	Payload []byte       `json:"payload,omitempty"`
	Label   *buckle.Label `json:"label,omitempty"`
}
