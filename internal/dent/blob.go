package dent

import (
	"github.com/ddaud1/faasten-host/internal/store"
)

// BlobCreate allocates a NewBlob in the store's temp area and returns
// its fresh id, shared with whatever finalized Blob id it later
// becomes.
func (p *Processor) BlobCreate() Result {
	p.countSyscall("blob_create")
	nb, err := p.Blobs.Create()
	if err != nil {
		return p.fail(StoreFailure)
	}
	id := p.allocBlobID()
	p.newBlobs.InsertAt(id, nb)
	return okFd(id)
}

// BlobWrite appends bytes to an in-construction blob.
func (p *Processor) BlobWrite(fd uint64, data []byte) Result {
	p.countSyscall("blob_write")
	nb, ok := p.newBlobs.Get(fd)
	if !ok {
		return p.fail(BadHandle)
	}
	n, err := nb.Write(data)
	if err != nil {
		return p.fail(StoreFailure)
	}
	if p.Metrics != nil {
		p.Metrics.BlobBytesWritten.Add(float64(n))
	}
	l := int64(n)
	return Result{Success: true, Len: &l}
}

// BlobFinalize computes the content hash, atomically promotes the
// temp file, and moves the handle from create-blobs to blobs under
// the same id.
func (p *Processor) BlobFinalize(fd uint64) Result {
	p.countSyscall("blob_finalize")
	nb, ok := p.newBlobs.Get(fd)
	if !ok {
		return p.fail(BadHandle)
	}
	blob, err := p.Blobs.Finalize(nb)
	if err != nil {
		return p.fail(StoreFailure)
	}
	p.newBlobs.Remove(fd)
	p.openBlobs.InsertAt(fd, blob)
	l := blob.Len()
	return Result{Success: true, Fd: &fd, Len: &l}
}

// BlobRead performs a random-access read; offset defaults to 0,
// length to 4096. Short reads at EOF are permitted.
func (p *Processor) BlobRead(fd uint64, offset *int64, length *int64) Result {
	p.countSyscall("blob_read")
	blob, ok := p.openBlobs.Get(fd)
	if !ok {
		return p.fail(BadHandle)
	}
	off := int64(0)
	if offset != nil {
		off = *offset
	}
	ln := int64(4096)
	if length != nil {
		ln = *length
	}
	buf := make([]byte, ln)
	n, err := blob.ReadAt(buf, off)
	if err != nil && n == 0 {
		return p.fail(StoreFailure)
	}
	return Result{Success: true, Data: buf[:n]}
}

// BlobClose removes fd from the finalized blobs table.
func (p *Processor) BlobClose(fd uint64) Result {
	p.countSyscall("blob_close")
	if !p.openBlobs.Remove(fd) {
		return p.fail(BadHandle)
	}
	return ok()
}

// DentGetBlob opens a Blob dent's backing content into the blobs
// table, raising L with the dent's label.
func (p *Processor) DentGetBlob(dentFd uint64) Result {
	p.countSyscall("dent_get_blob")
	entry, ok := p.dents.Get(dentFd)
	if !ok {
		return p.fail(BadHandle)
	}
	if entry.Kind != KindBlob {
		return p.fail(KindMismatch)
	}
	rec, err := p.Store.GetBlob(entry.Ref)
	if err != nil {
		return p.storeErr(err)
	}
	p.taint(rec.Label)

	blob, err := p.Blobs.Open(rec.Name)
	if err != nil {
		return p.fail(StoreFailure)
	}
	id := p.allocBlobID()
	p.openBlobs.InsertAt(id, blob)
	l := blob.Len()
	return Result{Success: true, Fd: &id, Len: &l}
}

func (p *Processor) storeErr(err error) Result {
	if err == store.ErrNotFound {
		return p.fail(BadHandle)
	}
	return p.fail(StoreFailure)
}
