package dent

import (
	"sort"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/store"
)

// DentClose removes fd from the dents table; closing an unknown
// handle fails but never aborts the session.
func (p *Processor) DentClose(fd uint64) Result {
	p.countSyscall("dent_close")
	if !p.dents.Remove(fd) {
		return p.fail(BadHandle)
	}
	return ok()
}

// DentOpen dispatches the three (base-kind, entry-kind) cases from
// spec.md §4.3.
func (p *Processor) DentOpen(dirFd uint64, entry OpenEntry) Result {
	p.countSyscall("dent_open")
	base, ok := p.dents.Get(dirFd)
	if !ok {
		return p.fail(BadHandle)
	}

	switch base.Kind {
	case KindDirectory:
		if entry.Name == nil {
			return p.fail(BadInput)
		}
		dir, err := p.Store.GetDirectory(base.Ref)
		if err != nil {
			return p.storeErr(err)
		}
		p.taint(dir.Label)
		childRef, present := dir.Entries[*entry.Name]
		if !present {
			return p.fail(BadHandle)
		}
		childEntry, err := p.resolveRef(childRef)
		if err != nil {
			return p.storeErr(err)
		}
		fd := p.dents.Insert(childEntry)
		return okFdKind(fd, childEntry.Kind)

	case KindFacetedDirectory:
		var labelKey string
		if entry.Facet != nil {
			labelKey = *entry.Facet
		} else if entry.Name != nil {
			lbl, parsed := buckle.Parse(*entry.Name)
			if !parsed {
				return p.fail(BadInput)
			}
			labelKey = lbl.String()
		} else {
			return p.fail(BadInput)
		}
		dirRef, _, err := p.Store.FacetOpen(base.Ref, labelKey)
		if err != nil {
			return p.storeErr(err)
		}
		fd := p.dents.Insert(DirEntry{Kind: KindDirectory, Ref: dirRef})
		return okFdKind(fd, KindDirectory)

	default:
		return p.fail(KindMismatch)
	}
}

func okFdKind(fd uint64, kind Kind) Result {
	r := okFd(fd)
	r.Kind = kind.String()
	return r
}

// resolveRef looks up which kind of record a store object-ref points
// to. The store keeps kind-specific buckets, so this tries each in
// turn; a production store would instead keep a kind tag alongside
// the ref, but every dent created via dent_create already knows its
// own kind (this path serves dent_open's directory-entry lookup,
// dent_list's kind tags, and dent_ls_gate's inner-gate handle, which
// re-derive it from the persisted record).
func (p *Processor) resolveRef(ref string) (DirEntry, error) {
	if _, err := p.Store.GetDirectory(ref); err == nil {
		return DirEntry{Kind: KindDirectory, Ref: ref}, nil
	}
	if _, err := p.Store.GetFile(ref); err == nil {
		return DirEntry{Kind: KindFile, Ref: ref}, nil
	}
	if _, err := p.Store.GetFacetedDirectory(ref); err == nil {
		return DirEntry{Kind: KindFacetedDirectory, Ref: ref}, nil
	}
	if _, err := p.Store.GetGate(ref); err == nil {
		return DirEntry{Kind: KindGate, Ref: ref}, nil
	}
	if _, err := p.Store.GetService(ref); err == nil {
		return DirEntry{Kind: KindService, Ref: ref}, nil
	}
	if _, err := p.Store.GetBlob(ref); err == nil {
		return DirEntry{Kind: KindBlob, Ref: ref}, nil
	}
	return DirEntry{}, store.ErrNotFound
}

// DentLink binds name to target_fd's referent inside the directory at
// dir_fd. A repeated name is last-write-wins (DESIGN.md Open Question
// decision).
func (p *Processor) DentLink(dirFd uint64, name string, targetFd uint64) Result {
	p.countSyscall("dent_link")
	dirEntry, ok := p.dents.Get(dirFd)
	if !ok || dirEntry.Kind != KindDirectory {
		if !ok {
			return p.fail(BadHandle)
		}
		return p.fail(KindMismatch)
	}
	target, ok := p.dents.Get(targetFd)
	if !ok {
		return p.fail(BadHandle)
	}
	dir, err := p.Store.GetDirectory(dirEntry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(dir.Label)
	if !p.checkWrite(dir.Label) {
		return p.fail(LabelDenied)
	}
	if err := p.Store.Link(dirEntry.Ref, name, target.Ref); err != nil {
		return p.fail(StoreFailure)
	}
	return ok()
}

// DentUnlink removes name from the directory at dir_fd, reporting
// whether an entry was actually removed.
func (p *Processor) DentUnlink(dirFd uint64, name string) Result {
	p.countSyscall("dent_unlink")
	dirEntry, ok := p.dents.Get(dirFd)
	if !ok {
		return p.fail(BadHandle)
	}
	if dirEntry.Kind != KindDirectory {
		return p.fail(KindMismatch)
	}
	dir, err := p.Store.GetDirectory(dirEntry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(dir.Label)
	if !p.checkWrite(dir.Label) {
		return p.fail(LabelDenied)
	}
	removed, err := p.Store.Unlink(dirEntry.Ref, name)
	if err != nil {
		return p.fail(StoreFailure)
	}
	if !removed {
		return p.fail(BadHandle)
	}
	return ok()
}

// DentList returns an ordered sequence of (name, kind-tag) for a
// Directory.
func (p *Processor) DentList(dirFd uint64) Result {
	p.countSyscall("dent_list")
	dirEntry, ok := p.dents.Get(dirFd)
	if !ok {
		return p.fail(BadHandle)
	}
	if dirEntry.Kind != KindDirectory {
		return p.fail(KindMismatch)
	}
	dir, err := p.Store.GetDirectory(dirEntry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(dir.Label)

	names := make([]string, 0, len(dir.Entries))
	for name := range dir.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]ListEntry, 0, len(names))
	for _, name := range names {
		child, err := p.resolveRef(dir.Entries[name])
		if err != nil {
			continue
		}
		entries = append(entries, ListEntry{Name: name, Kind: child.Kind.String()})
	}
	return Result{Success: true, Entries: entries}
}

// DentLsFaceted returns only facets whose label flows to clearance
// (defaulting to public), raising L by clearance.
func (p *Processor) DentLsFaceted(fdirFd uint64, clearance *buckle.Label) Result {
	p.countSyscall("dent_ls_faceted")
	entry, ok := p.dents.Get(fdirFd)
	if !ok {
		return p.fail(BadHandle)
	}
	if entry.Kind != KindFacetedDirectory {
		return p.fail(KindMismatch)
	}
	clear := buckle.Public()
	if clearance != nil {
		clear = *clearance
	}
	p.taint(clear)

	fd, err := p.Store.GetFacetedDirectory(entry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	facets := make([]string, 0, len(fd.Facets))
	for labelStr := range fd.Facets {
		lbl, parsed := buckle.Parse(labelStr)
		if !parsed {
			continue
		}
		if lbl.Implies(clear) {
			facets = append(facets, labelStr)
		}
	}
	return Result{Success: true, Facets: facets}
}
