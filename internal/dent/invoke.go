package dent

import (
	"net/http"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/egress"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/ddaud1/faasten-host/internal/store"
)

// DentInvoke mediates an outbound call through a Gate or a Service
// per spec.md §4.5.
func (p *Processor) DentInvoke(req InvokeRequest) Result {
	p.countSyscall("dent_invoke")
	entry, ok := p.dents.Get(req.Fd)
	if !ok {
		return p.fail(BadHandle)
	}

	switch entry.Kind {
	case KindGate:
		return p.invokeGate(entry.Ref, req)
	case KindService:
		return p.invokeService(entry.Ref, req)
	default:
		return p.fail(KindMismatch)
	}
}

func (p *Processor) recordOutcome(outcome string) {
	if p.Metrics != nil {
		p.Metrics.GateInvocationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (p *Processor) invokeGate(ref string, req InvokeRequest) Result {
	g, err := p.Store.GetGate(ref)
	if err != nil {
		return p.storeErr(err)
	}

	invokerClearance, gatePrivilege := gateCredentials(g)
	if !p.Mon.CanEndorse(invokerClearance) {
		p.recordOutcome("denied")
		return p.fail(LabelDenied)
	}

	fn := scheduler.FunctionRef{}
	if g.Direct != nil {
		fn = scheduler.FunctionRef{AppImage: g.Direct.AppImage, RuntimeImage: g.Direct.RuntimeImage, Memory: g.Direct.Memory}
	}

	invokeMsg := scheduler.LabeledInvoke{
		Function:      fn,
		Label:         p.Mon.CurrentLabel(),
		GatePrivilege: gatePrivilege,
		Payload:       req.Payload,
		Headers:       stringMapToBytes(req.Parameters),
		Sync:          req.Sync,
		Invoker:       p.Mon.Privilege(),
	}

	resp, err := p.Scheduler.Invoke(invokeMsg)
	if err != nil {
		p.recordOutcome("unreachable")
		return p.fail(SchedulerUnreachable)
	}
	if !req.Sync {
		p.recordOutcome("async")
		return ok()
	}

	// Taint before any payload byte becomes observable (spec.md §4.5/§5).
	if resp.Label != nil {
		p.taint(*resp.Label)
	}
	p.recordOutcome("success")

	if req.ToBlob {
		return p.materializeToBlob(resp.Payload)
	}
	return Result{Success: true, Data: resp.Payload}
}

// gateCredentials extracts the invoker-integrity-clearance and
// privilege fields common to both gate variants.
func gateCredentials(g *store.Gate) (buckle.Component, buckle.Component) {
	if g.Direct != nil {
		return g.Direct.InvokerIntegrityClearance, g.Direct.Privilege
	}
	return g.Redirect.InvokerIntegrityClearance, g.Redirect.Privilege
}

func (p *Processor) invokeService(ref string, req InvokeRequest) Result {
	svc, err := p.Store.GetService(ref)
	if err != nil {
		return p.storeErr(err)
	}

	if !p.Mon.CanEndorse(svc.InvokerIntegrityClearance) {
		p.recordOutcome("denied")
		return p.fail(LabelDenied)
	}

	// declassify_with(service.privilege): widen the session's
	// declassification authority with the service's own privilege so
	// the egress call can proceed even if the caller alone couldn't
	// declassify to public.
	p.Mon.DeclassifyWith(buckle.DCTrue(), svc.Privilege)

	url, err := egress.InterpolateURL(svc.URLTemplate, req.Parameters)
	if err != nil {
		p.recordOutcome("bad_url")
		p.taint(svc.Taint)
		return p.fail(BadUrlArgs)
	}

	verb := svc.Verb
	if verb == "" {
		verb = http.MethodGet
	}

	resp, err := p.Egress.Do(egress.Request{
		URL:     url,
		Verb:    verb,
		Headers: svc.Headers,
		Body:    req.Payload,
	})

	// Mandatory taint regardless of transport outcome — this ordering
	// is load-bearing (spec.md §4.5, §7, §8 property 7).
	p.taint(svc.Taint)

	if err != nil {
		p.recordOutcome("transport_error")
		return p.fail(HttpTransport)
	}
	p.recordOutcome("success")

	if req.ToBlob {
		return p.materializeToBlob(resp.Body)
	}
	return Result{Success: true, Data: resp.Body, Headers: resp.Headers}
}

func (p *Processor) materializeToBlob(payload []byte) Result {
	nb, err := p.Blobs.Create()
	if err != nil {
		return p.fail(StoreFailure)
	}
	if _, err := nb.Write(payload); err != nil {
		return p.fail(StoreFailure)
	}
	blob, err := p.Blobs.Finalize(nb)
	if err != nil {
		return p.fail(StoreFailure)
	}
	id := p.allocBlobID()
	p.openBlobs.InsertAt(id, blob)
	l := blob.Len()
	return Result{Success: true, Fd: &id, Len: &l}
}

func stringMapToBytes(m map[string]string) map[string][]byte {
	if m == nil {
		return nil
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = []byte(v)
	}
	return out
}
