package store

import "errors"

// ErrNotFound is returned by Get* when an object-ref has no record.
var ErrNotFound = errors.New("store: object not found")

// Store is the persistent labeled store contract (spec.md §6). Every
// directory-entry kind gets a create/get/replace trio; Directory and
// FacetedDirectory additionally support link/unlink/facet-open.
type Store interface {
	// Initialize creates the root directory if absent and reports
	// whether it did so.
	Initialize() (createdRoot bool, rootRef string, err error)

	CreateDirectory(d *Directory) error
	GetDirectory(ref string) (*Directory, error)
	ReplaceDirectory(d *Directory) error
	Link(dirRef, name, targetRef string) error
	Unlink(dirRef, name string) (bool, error)

	CreateFile(f *File) error
	GetFile(ref string) (*File, error)
	ReplaceFile(f *File) error

	CreateFacetedDirectory(fd *FacetedDirectory) error
	GetFacetedDirectory(ref string) (*FacetedDirectory, error)
	FacetOpen(fdRef string, labelKey string) (directoryRef string, created bool, err error)

	CreateBlob(b *Blob) error
	GetBlob(ref string) (*Blob, error)
	ReplaceBlob(b *Blob) error

	CreateGate(g *Gate) error
	GetGate(ref string) (*Gate, error)
	ReplaceGate(g *Gate) error

	CreateService(s *Service) error
	GetService(ref string) (*Service, error)
	ReplaceService(s *Service) error

	Close() error
}
