package dent

import (
	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/store"
)

func (p *Processor) resolveLabel(s *string) (buckle.Label, bool) {
	if s == nil {
		return buckle.Public(), true
	}
	return buckle.Parse(*s)
}

func (p *Processor) resolveComponent(s *string, fallback buckle.Component) (buckle.Component, bool) {
	if s == nil || *s == "" {
		return fallback, true
	}
	c, ok := buckle.ParseComponent(*s)
	return c, ok
}

// DentCreate dispatches on req.Kind per spec.md §4.3.
func (p *Processor) DentCreate(req CreateRequest) Result {
	p.countSyscall("dent_create")
	label, ok := p.resolveLabel(req.Label)
	if !ok {
		return p.fail(BadInput)
	}

	switch {
	case req.Kind.Directory != nil:
		d := &store.Directory{Label: label, Entries: map[string]string{}}
		if err := p.Store.CreateDirectory(d); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindDirectory, Ref: d.ID}), KindDirectory)

	case req.Kind.File != nil:
		f := &store.File{Label: label}
		if err := p.Store.CreateFile(f); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindFile, Ref: f.ID}), KindFile)

	case req.Kind.FacetedDirectory != nil:
		fd := &store.FacetedDirectory{Facets: map[string]string{}}
		if err := p.Store.CreateFacetedDirectory(fd); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindFacetedDirectory, Ref: fd.ID}), KindFacetedDirectory)

	case req.Kind.Blob != nil:
		blob, ok := p.openBlobs.Get(req.Kind.Blob.BlobFd)
		if !ok {
			return p.fail(BadHandle)
		}
		rec := &store.Blob{Label: label, Name: blob.Name}
		if err := p.Store.CreateBlob(rec); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindBlob, Ref: rec.ID}), KindBlob)

	case req.Kind.Gate != nil:
		return p.createGate(label, req.Kind.Gate)

	case req.Kind.Service != nil:
		return p.createService(label, req.Kind.Service)

	default:
		return p.fail(BadInput)
	}
}

func (p *Processor) createGate(label buckle.Label, g *GateCreateKind) Result {
	switch {
	case g.Direct != nil:
		privilege, ok := p.resolveComponent(&g.Direct.Privilege, buckle.DCTrue())
		if !ok {
			return p.fail(BadInput)
		}
		clearance, ok := p.resolveComponent(&g.Direct.InvokerIntegrityClearance, buckle.DCTrue())
		if !ok {
			return p.fail(BadInput)
		}
		declassify, ok := p.resolveComponent(g.Direct.Declassify, buckle.DCFalse())
		if !ok {
			return p.fail(BadInput)
		}
		appImage, ok := p.openBlobs.Get(g.Direct.AppImageFd)
		if !ok {
			return p.fail(BadHandle)
		}
		runtimeImage, ok := p.openBlobs.Get(g.Direct.RuntimeImageFd)
		if !ok {
			return p.fail(BadHandle)
		}
		rec := &store.Gate{
			Label: label,
			Direct: &store.DirectGate{
				Privilege:                 privilege,
				InvokerIntegrityClearance: clearance,
				Declassify:                declassify,
				AppImage:                  appImage.Name,
				RuntimeImage:              runtimeImage.Name,
				Memory:                    g.Direct.Memory,
			},
		}
		if err := p.Store.CreateGate(rec); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindGate, Ref: rec.ID}), KindGate)

	case g.Redirect != nil:
		privilege, ok := p.resolveComponent(&g.Redirect.Privilege, buckle.DCTrue())
		if !ok {
			return p.fail(BadInput)
		}
		clearance, ok := p.resolveComponent(&g.Redirect.InvokerIntegrityClearance, buckle.DCTrue())
		if !ok {
			return p.fail(BadInput)
		}
		declassify, ok := p.resolveComponent(g.Redirect.Declassify, buckle.DCFalse())
		if !ok {
			return p.fail(BadInput)
		}
		inner, ok := p.dents.Get(g.Redirect.GateFd)
		if !ok {
			return p.fail(BadHandle)
		}
		if inner.Kind != KindGate {
			return p.fail(KindMismatch)
		}
		rec := &store.Gate{
			Label: label,
			Redirect: &store.RedirectGate{
				Privilege:                 privilege,
				InvokerIntegrityClearance: clearance,
				Declassify:                declassify,
				InnerGateRef:              inner.Ref,
			},
		}
		if err := p.Store.CreateGate(rec); err != nil {
			return p.fail(StoreFailure)
		}
		return okFdKind(p.dents.Insert(DirEntry{Kind: KindGate, Ref: rec.ID}), KindGate)

	default:
		return p.fail(BadInput)
	}
}

func (p *Processor) createService(label buckle.Label, s *ServiceCreateKind) Result {
	taint, ok := buckle.Parse(s.Taint)
	if !ok {
		return p.fail(BadInput)
	}
	privilege, ok := p.resolveComponent(&s.Privilege, buckle.DCTrue())
	if !ok {
		return p.fail(BadInput)
	}
	clearance, ok := p.resolveComponent(&s.InvokerIntegrityClearance, buckle.DCTrue())
	if !ok {
		return p.fail(BadInput)
	}
	if s.URL == "" || s.Verb == "" {
		return p.fail(BadInput)
	}
	rec := &store.Service{
		Label:                     label,
		Taint:                     taint,
		Privilege:                 privilege,
		InvokerIntegrityClearance: clearance,
		URLTemplate:               s.URL,
		Verb:                      s.Verb,
		Headers:                   s.Headers,
	}
	if err := p.Store.CreateService(rec); err != nil {
		return p.fail(StoreFailure)
	}
	return okFdKind(p.dents.Insert(DirEntry{Kind: KindService, Ref: rec.ID}), KindService)
}
