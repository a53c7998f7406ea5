// Package store is the persistent labeled store: a bbolt-backed
// database holding one bucket per directory-entry kind, keyed by an
// opaque object-ref (a uuid, never a session handle id).
package store

import "github.com/ddaud1/faasten-host/internal/buckle"

// Directory is a labeled mapping from name to child object-ref.
type Directory struct {
	ID      string            `json:"id"`
	Label   buckle.Label      `json:"label"`
	Entries map[string]string `json:"entries"`
}

// File is a labeled byte string.
type File struct {
	ID    string       `json:"id"`
	Label buckle.Label `json:"label"`
	Data  []byte       `json:"data"`
}

// FacetedDirectory is unlabeled; it maps a label's canonical string
// form to the object-ref of the Directory opened under that facet.
type FacetedDirectory struct {
	ID     string            `json:"id"`
	Facets map[string]string `json:"facets"`
}

// Blob is a labeled wrapper around a content-hash name in the blob
// store.
type Blob struct {
	ID    string       `json:"id"`
	Label buckle.Label `json:"label"`
	Name  string       `json:"name"`
}

// DirectGate carries the function a Direct gate invokes.
type DirectGate struct {
	Privilege                 buckle.Component `json:"privilege"`
	InvokerIntegrityClearance buckle.Component `json:"invoker_integrity_clearance"`
	Declassify                buckle.Component `json:"declassify"`
	AppImage                  string           `json:"app_image"`
	RuntimeImage              string           `json:"runtime_image"`
	Memory                    uint64           `json:"memory"`
}

// RedirectGate forwards invocation to another gate.
type RedirectGate struct {
	Privilege                 buckle.Component `json:"privilege"`
	InvokerIntegrityClearance buckle.Component `json:"invoker_integrity_clearance"`
	Declassify                buckle.Component `json:"declassify"`
	InnerGateRef              string           `json:"inner_gate_ref"`
}

// Gate is labeled and carries exactly one of Direct or Redirect.
type Gate struct {
	ID       string        `json:"id"`
	Label    buckle.Label  `json:"label"`
	Direct   *DirectGate   `json:"direct,omitempty"`
	Redirect *RedirectGate `json:"redirect,omitempty"`
}

// IsDirect reports whether the gate is the Direct variant.
func (g *Gate) IsDirect() bool { return g.Direct != nil }

// Service performs an outbound HTTP call under a specified taint and
// declassify discipline.
type Service struct {
	ID                        string            `json:"id"`
	Label                     buckle.Label      `json:"label"`
	Taint                     buckle.Label      `json:"taint"`
	Privilege                 buckle.Component  `json:"privilege"`
	InvokerIntegrityClearance buckle.Component  `json:"invoker_integrity_clearance"`
	URLTemplate               string            `json:"url_template"`
	Verb                      string            `json:"verb"`
	Headers                   map[string][]byte `json:"headers"`
}
