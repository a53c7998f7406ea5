package dent

import (
	"github.com/ddaud1/faasten-host/internal/blobstore"
	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/egress"
	"github.com/ddaud1/faasten-host/internal/metrics"
	"github.com/ddaud1/faasten-host/internal/monitor"
	"github.com/ddaud1/faasten-host/internal/obslog"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/ddaud1/faasten-host/internal/store"
)

// Processor is the per-session SyscallProcessor: the union of C1-C5
// that every host call re-enters. It owns no shared state across
// sessions and performs no locking — the session is single-threaded
// per spec.md §5.
type Processor struct {
	Mon       *monitor.Monitor
	Store     store.Store
	Blobs     *blobstore.Store
	Scheduler *scheduler.Client
	Egress    *egress.Client
	Metrics   *metrics.Registry

	dents      *Table[DirEntry]
	openBlobs  *Table[*blobstore.Blob]
	newBlobs   *Table[*blobstore.NewBlob]
	nextBlobID uint64

	// currentSyscall is the name of the syscall currently re-entering
	// the processor, set by countSyscall at entry and read back by
	// fail() to tag its outcome log. The session is single-threaded
	// (spec.md §5), so this never races.
	currentSyscall string
}

// allocBlobID mints an id shared across the blobs and create-blobs
// tables: a NewBlob and the finalized Blob it becomes keep the same
// id across the promotion (spec.md §4.4), so both tables draw from
// one counter instead of each having its own.
func (p *Processor) allocBlobID() uint64 {
	id := p.nextBlobID
	p.nextBlobID++
	return id
}

// NewProcessor builds a processor with the session's root handle
// already seeded at id 0, matching C7 step 4.
func NewProcessor(mon *monitor.Monitor, st store.Store, blobs *blobstore.Store, sched *scheduler.Client, eg *egress.Client, m *metrics.Registry, rootRef string) *Processor {
	dents := NewTable[DirEntry](1)
	dents.InsertAt(0, DirEntry{Kind: KindDirectory, Ref: rootRef})
	// dents.next already starts at 1, so handle 0 is reserved for root
	// without ever being handed out again by Insert.

	return &Processor{
		Mon:       mon,
		Store:     st,
		Blobs:     blobs,
		Scheduler: sched,
		Egress:    eg,
		Metrics:   m,
		dents:      dents,
		openBlobs:  NewTable[*blobstore.Blob](0),
		newBlobs:   NewTable[*blobstore.NewBlob](0),
		nextBlobID: 0,
	}
}

// Root returns {success:true, fd:0}, the pre-seeded root directory
// handle.
func (p *Processor) Root() Result {
	p.countSyscall("root")
	return okFd(0)
}

func (p *Processor) countSyscall(name string) {
	p.currentSyscall = name
	obslog.WithSyscall(name).Debug().Msg("syscall entry")
	if p.Metrics != nil {
		p.Metrics.SyscallsTotal.WithLabelValues(name).Inc()
	}
}

// taint applies the monotonic-secrecy rule: any read of an object
// labeled objLabel raises the current label.
func (p *Processor) taint(objLabel buckle.Label) {
	p.Mon.Taint(objLabel)
	if p.Metrics != nil {
		p.Metrics.TaintEvents.Inc()
	}
}

// checkWrite applies the write-check rule against objLabel.
func (p *Processor) checkWrite(objLabel buckle.Label) bool {
	return p.Mon.CheckWrite(objLabel)
}
