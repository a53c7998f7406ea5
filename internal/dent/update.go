package dent

import "github.com/ddaud1/faasten-host/internal/buckle"

// DentUpdate dispatches on req.Kind, requiring it match the target
// dent's own kind.
func (p *Processor) DentUpdate(req UpdateRequest) Result {
	p.countSyscall("dent_update")
	entry, ok := p.dents.Get(req.Fd)
	if !ok {
		return p.fail(BadHandle)
	}

	switch {
	case req.Kind.File != nil:
		if entry.Kind != KindFile {
			return p.fail(KindMismatch)
		}
		f, err := p.Store.GetFile(entry.Ref)
		if err != nil {
			return p.storeErr(err)
		}
		if !p.checkWrite(f.Label) {
			return p.fail(LabelDenied)
		}
		f.Data = req.Kind.File.Data
		if err := p.Store.ReplaceFile(f); err != nil {
			return p.fail(StoreFailure)
		}
		return ok()

	case req.Kind.Blob != nil:
		if entry.Kind != KindBlob {
			return p.fail(KindMismatch)
		}
		b, err := p.Store.GetBlob(entry.Ref)
		if err != nil {
			return p.storeErr(err)
		}
		if !p.checkWrite(b.Label) {
			return p.fail(LabelDenied)
		}
		newBlob, ok := p.openBlobs.Get(req.Kind.Blob.BlobFd)
		if !ok {
			return p.fail(BadHandle)
		}
		b.Name = newBlob.Name
		if err := p.Store.ReplaceBlob(b); err != nil {
			return p.fail(StoreFailure)
		}
		return ok()

	case req.Kind.Gate != nil:
		if entry.Kind != KindGate {
			return p.fail(KindMismatch)
		}
		return p.updateGate(entry.Ref, req.Kind.Gate)

	case req.Kind.Service != nil:
		if entry.Kind != KindService {
			return p.fail(KindMismatch)
		}
		return p.replaceService(entry.Ref, req.Kind.Service)

	default:
		return p.fail(BadInput)
	}
}

func (p *Processor) updateGate(ref string, upd *GateUpdate) Result {
	g, err := p.Store.GetGate(ref)
	if err != nil {
		return p.storeErr(err)
	}
	if !p.checkWrite(g.Label) {
		return p.fail(LabelDenied)
	}

	switch {
	case upd.Direct != nil && g.Direct != nil:
		d := g.Direct
		if upd.Direct.Privilege != nil {
			c, ok := buckle.ParseComponent(*upd.Direct.Privilege)
			if !ok {
				return p.fail(BadInput)
			}
			d.Privilege = c
		}
		if upd.Direct.InvokerIntegrityClearance != nil {
			c, ok := buckle.ParseComponent(*upd.Direct.InvokerIntegrityClearance)
			if !ok {
				return p.fail(BadInput)
			}
			d.InvokerIntegrityClearance = c
		}
		if upd.Direct.Declassify != nil {
			c, ok := buckle.ParseComponent(*upd.Direct.Declassify)
			if !ok {
				return p.fail(BadInput)
			}
			d.Declassify = c
		}
		if upd.Direct.AppImageFd != 0 {
			blob, ok := p.openBlobs.Get(upd.Direct.AppImageFd)
			if !ok {
				return p.fail(BadHandle)
			}
			d.AppImage = blob.Name
		}
		if upd.Direct.RuntimeImageFd != 0 {
			blob, ok := p.openBlobs.Get(upd.Direct.RuntimeImageFd)
			if !ok {
				return p.fail(BadHandle)
			}
			d.RuntimeImage = blob.Name
		}
		if upd.Direct.Memory != 0 {
			d.Memory = upd.Direct.Memory
		}

	case upd.Redirect != nil && g.Redirect != nil:
		r := g.Redirect
		if upd.Redirect.Privilege != nil {
			c, ok := buckle.ParseComponent(*upd.Redirect.Privilege)
			if !ok {
				return p.fail(BadInput)
			}
			r.Privilege = c
		}
		if upd.Redirect.InvokerIntegrityClearance != nil {
			c, ok := buckle.ParseComponent(*upd.Redirect.InvokerIntegrityClearance)
			if !ok {
				return p.fail(BadInput)
			}
			r.InvokerIntegrityClearance = c
		}
		if upd.Redirect.Declassify != nil {
			c, ok := buckle.ParseComponent(*upd.Redirect.Declassify)
			if !ok {
				return p.fail(BadInput)
			}
			r.Declassify = c
		}
		if upd.Redirect.GateFd != 0 {
			inner, ok := p.dents.Get(upd.Redirect.GateFd)
			if !ok {
				return p.fail(BadHandle)
			}
			if inner.Kind != KindGate {
				return p.fail(KindMismatch)
			}
			r.InnerGateRef = inner.Ref
		}

	default:
		return p.fail(KindMismatch)
	}

	if err := p.Store.ReplaceGate(g); err != nil {
		return p.fail(StoreFailure)
	}
	return ok()
}

func (p *Processor) replaceService(ref string, s *ServiceCreateKind) Result {
	svc, err := p.Store.GetService(ref)
	if err != nil {
		return p.storeErr(err)
	}
	if !p.checkWrite(svc.Label) {
		return p.fail(LabelDenied)
	}
	taint, ok := buckle.Parse(s.Taint)
	if !ok {
		return p.fail(BadInput)
	}
	privilege, ok := buckle.ParseComponent(s.Privilege)
	if !ok {
		return p.fail(BadInput)
	}
	clearance, ok := buckle.ParseComponent(s.InvokerIntegrityClearance)
	if !ok {
		return p.fail(BadInput)
	}
	svc.Taint = taint
	svc.Privilege = privilege
	svc.InvokerIntegrityClearance = clearance
	svc.URLTemplate = s.URL
	svc.Verb = s.Verb
	svc.Headers = s.Headers
	if err := p.Store.ReplaceService(svc); err != nil {
		return p.fail(StoreFailure)
	}
	return ok()
}

// DentRead returns a File dent's bytes, raising L.
func (p *Processor) DentRead(fd uint64) Result {
	p.countSyscall("dent_read")
	entry, ok := p.dents.Get(fd)
	if !ok {
		return p.fail(BadHandle)
	}
	if entry.Kind != KindFile {
		return p.fail(KindMismatch)
	}
	f, err := p.Store.GetFile(entry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(f.Label)
	return Result{Success: true, Data: f.Data}
}

// DentLsGate returns the client-visible view of a Gate dent.
func (p *Processor) DentLsGate(gateFd uint64) Result {
	p.countSyscall("dent_ls_gate")
	entry, ok := p.dents.Get(gateFd)
	if !ok {
		return p.fail(BadHandle)
	}
	if entry.Kind != KindGate {
		return p.fail(KindMismatch)
	}
	g, err := p.Store.GetGate(entry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(g.Label)

	switch {
	case g.Direct != nil:
		appBlob, err := p.Blobs.Open(g.Direct.AppImage)
		if err != nil {
			return p.fail(StoreFailure)
		}
		runtimeBlob, err := p.Blobs.Open(g.Direct.RuntimeImage)
		if err != nil {
			return p.fail(StoreFailure)
		}
		appFd := p.allocBlobID()
		p.openBlobs.InsertAt(appFd, appBlob)
		runtimeFd := p.allocBlobID()
		p.openBlobs.InsertAt(runtimeFd, runtimeBlob)

		return Result{Success: true, Gate: &GateView{Direct: &DirectGateView{
			InvokerIntegrityClearance: g.Direct.InvokerIntegrityClearance,
			AppImageFd:                appFd,
			RuntimeImageFd:            runtimeFd,
			Memory:                    g.Direct.Memory,
		}}}

	case g.Redirect != nil:
		innerEntry, err := p.resolveRef(g.Redirect.InnerGateRef)
		if err != nil {
			return p.storeErr(err)
		}
		innerFd := p.dents.Insert(innerEntry)
		return Result{Success: true, Gate: &GateView{Redirect: &RedirectGateView{
			InvokerIntegrityClearance: g.Redirect.InvokerIntegrityClearance,
			InnerGateFd:               innerFd,
		}}}

	default:
		return p.fail(StoreFailure)
	}
}
