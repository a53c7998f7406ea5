package dent

import "github.com/ddaud1/faasten-host/internal/buckle"

// GetCurrentLabel is the get_current_label primitive.
func (p *Processor) GetCurrentLabel() buckle.Label {
	p.countSyscall("get_current_label")
	return p.Mon.CurrentLabel()
}

// BuckleParse is the pure parse primitive: no session state involved.
func (p *Processor) BuckleParse(input string) (buckle.Label, bool) {
	p.countSyscall("buckle_parse")
	return buckle.Parse(input)
}

// TaintWithLabel is the taint_with_label primitive.
func (p *Processor) TaintWithLabel(l buckle.Label) buckle.Label {
	p.countSyscall("taint_with_label")
	p.taint(l)
	return p.Mon.CurrentLabel()
}

// Declassify is the declassify primitive, recording attempt/success
// counters distinctly from the generic taint counter.
func (p *Processor) Declassify(target buckle.Component) buckle.Label {
	p.countSyscall("declassify")
	if p.Metrics != nil {
		p.Metrics.DeclassifyAttempts.Inc()
	}
	after := p.Mon.Declassify(target)
	if p.Metrics != nil && after.Secrecy.Equal(target) {
		p.Metrics.DeclassifySuccesses.Inc()
	}
	return after
}
