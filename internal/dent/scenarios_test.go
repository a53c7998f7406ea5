package dent

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// directGateFixture creates a Direct gate behind two finalized blobs
// (app and runtime images), gated on invokerIntegrityClearance.
func directGateFixture(t *testing.T, p *Processor, invokerIntegrityClearance string) uint64 {
	t.Helper()

	app := p.BlobCreate()
	require.True(t, app.Success)
	require.True(t, p.BlobWrite(*app.Fd, []byte("app-image")).Success)
	appFinal := p.BlobFinalize(*app.Fd)
	require.True(t, appFinal.Success)

	runtime := p.BlobCreate()
	require.True(t, runtime.Success)
	require.True(t, p.BlobWrite(*runtime.Fd, []byte("runtime-image")).Success)
	runtimeFinal := p.BlobFinalize(*runtime.Fd)
	require.True(t, runtimeFinal.Success)

	created := p.DentCreate(CreateRequest{Kind: CreateKind{Gate: &GateCreateKind{Direct: &DirectCreate{
		Privilege:                 "T",
		InvokerIntegrityClearance: invokerIntegrityClearance,
		AppImageFd:                *appFinal.Fd,
		RuntimeImageFd:            *runtimeFinal.Fd,
		Memory:                    128,
	}}}})
	require.True(t, created.Success)
	return *created.Fd
}

// TestScenarioS2FileLifecycle creates a File dent under root, writes
// and reads it back, and checks the read raises the session label.
func TestScenarioS2FileLifecycle(t *testing.T) {
	p := newTestProcessor(t, buckle.DCTrue())

	label := "Dalice,Ialice"
	created := p.DentCreate(CreateRequest{Label: &label, Kind: CreateKind{File: &struct{}{}}})
	require.True(t, created.Success)
	require.NotNil(t, created.Fd)

	linked := p.DentLink(0, "greeting.txt", *created.Fd)
	require.True(t, linked.Success)

	opened := p.DentOpen(0, OpenEntry{Name: strp("greeting.txt")})
	require.True(t, opened.Success)
	require.Equal(t, KindFile.String(), opened.Kind)

	upd := p.DentUpdate(UpdateRequest{Fd: *opened.Fd, Kind: UpdateKind{File: &FileUpdate{Data: []byte("hello")}}})
	require.True(t, upd.Success)

	read := p.DentRead(*opened.Fd)
	require.True(t, read.Success)
	assert.Equal(t, []byte("hello"), read.Data)

	want, ok := buckle.Parse(label)
	require.True(t, ok)
	assert.True(t, p.Mon.CurrentLabel().Secrecy.Equal(want.Secrecy))
}

// TestScenarioS3LinkUnlinkIdempotence exercises last-write-wins linking
// and idempotent-looking unlink (second unlink of the same name fails
// with BadHandle rather than silently succeeding).
func TestScenarioS3LinkUnlinkIdempotence(t *testing.T) {
	p := newTestProcessor(t, buckle.DCTrue())

	f1 := p.DentCreate(CreateRequest{Kind: CreateKind{File: &struct{}{}}})
	require.True(t, f1.Success)
	f2 := p.DentCreate(CreateRequest{Kind: CreateKind{File: &struct{}{}}})
	require.True(t, f2.Success)

	require.True(t, p.DentLink(0, "name", *f1.Fd).Success)
	require.True(t, p.DentLink(0, "name", *f2.Fd).Success)

	opened := p.DentOpen(0, OpenEntry{Name: strp("name")})
	require.True(t, opened.Success)

	listed := p.DentList(0)
	require.True(t, listed.Success)
	count := 0
	for _, e := range listed.Entries {
		if e.Name == "name" {
			count++
		}
	}
	assert.Equal(t, 1, count, "last-write-wins: only one entry named \"name\"")

	unlinked := p.DentUnlink(0, "name")
	require.True(t, unlinked.Success)

	again := p.DentUnlink(0, "name")
	assert.False(t, again.Success)
	assert.Equal(t, BadHandle, again.Err)
}

// TestScenarioS4BlobRoundTrip builds a blob across several writes,
// finalizes it, and reads back the exact bytes, independent of how the
// writes were chunked.
func TestScenarioS4BlobRoundTrip(t *testing.T) {
	p := newTestProcessor(t, buckle.DCTrue())

	created := p.BlobCreate()
	require.True(t, created.Success)
	fd := *created.Fd

	require.True(t, p.BlobWrite(fd, []byte("hello, ")).Success)
	require.True(t, p.BlobWrite(fd, []byte("world")).Success)

	finalized := p.BlobFinalize(fd)
	require.True(t, finalized.Success)
	assert.Equal(t, fd, *finalized.Fd, "finalize keeps the same handle id")

	read := p.BlobRead(fd, nil, nil)
	require.True(t, read.Success)
	assert.Equal(t, []byte("hello, world"), read.Data)

	closed := p.BlobClose(fd)
	assert.True(t, closed.Success)

	againClosed := p.BlobClose(fd)
	assert.False(t, againClosed.Success, "double close fails")
}

// TestScenarioS5FacetedListingWithClearance stores two facets at
// different secrecy levels and checks that only the facet the caller's
// clearance implies is listed.
func TestScenarioS5FacetedListingWithClearance(t *testing.T) {
	p := newTestProcessor(t, buckle.DCTrue())

	fdir := p.DentCreate(CreateRequest{Kind: CreateKind{FacetedDirectory: &struct{}{}}})
	require.True(t, fdir.Success)

	publicOpen := p.DentOpen(*fdir.Fd, OpenEntry{Facet: strp(buckle.Public().String())})
	require.True(t, publicOpen.Success)

	secretLabel := "Dsecret,Dsecret"
	secretOpen := p.DentOpen(*fdir.Fd, OpenEntry{Name: strp(secretLabel)})
	require.True(t, secretOpen.Success)

	listedPublicOnly := p.DentLsFaceted(*fdir.Fd, nil)
	require.True(t, listedPublicOnly.Success)
	assert.Contains(t, listedPublicOnly.Facets, buckle.Public().String())
	assert.NotContains(t, listedPublicOnly.Facets, secretLabel)

	clearance, ok := buckle.Parse(secretLabel)
	require.True(t, ok)
	listedWithClearance := p.DentLsFaceted(*fdir.Fd, &clearance)
	require.True(t, listedWithClearance.Success)
	assert.Contains(t, listedWithClearance.Facets, secretLabel)
}

// TestWriteDeniedAboveClearance exercises the write-check rule: once
// the session label has been raised above an object's label, writes to
// that object are denied.
func TestWriteDeniedAboveClearance(t *testing.T) {
	p := newTestProcessor(t, buckle.DCFalse())

	f := p.DentCreate(CreateRequest{Kind: CreateKind{File: &struct{}{}}})
	require.True(t, f.Success)
	linked := p.DentLink(0, "f", *f.Fd)
	require.True(t, linked.Success)
	opened := p.DentOpen(0, OpenEntry{Name: strp("f")})
	require.True(t, opened.Success)

	secretLabel := "Dsecret,Dsecret"
	secret, ok := buckle.Parse(secretLabel)
	require.True(t, ok)
	p.Mon.Taint(secret)

	upd := p.DentUpdate(UpdateRequest{Fd: *opened.Fd, Kind: UpdateKind{File: &FileUpdate{Data: []byte("x")}}})
	assert.False(t, upd.Success)
	assert.Equal(t, LabelDenied, upd.Err)
}

// TestTaintIsMonotone checks that successive taints never lower
// secrecy: the label held before a taint implies (flows to) the label
// held after it.
func TestTaintIsMonotone(t *testing.T) {
	p := newTestProcessor(t, buckle.DCFalse())

	l1, ok := buckle.Parse("Da,Ia")
	require.True(t, ok)
	l2, ok := buckle.Parse("Db,Ib")
	require.True(t, ok)

	p.Mon.Taint(l1)
	afterFirst := p.Mon.CurrentLabel()
	p.Mon.Taint(l2)
	afterSecond := p.Mon.CurrentLabel()

	assert.True(t, afterFirst.Implies(afterSecond), "label only grows")
}

// TestServiceInvocationTaintsOnTransportFailure checks that a Service
// invocation against an unreachable URL still taints the session with
// the service's declared taint, per the mandatory-taint-on-failure
// rule.
func TestServiceInvocationTaintsOnTransportFailure(t *testing.T) {
	p := newTestProcessor(t, buckle.DCTrue())

	created := p.DentCreate(CreateRequest{Kind: CreateKind{Service: &ServiceCreateKind{
		Taint:                     "Dtainted,Itainted",
		Privilege:                 "T",
		InvokerIntegrityClearance: "T",
		URL:                       "http://127.0.0.1:1/{id}",
		Verb:                      "GET",
	}}})
	require.True(t, created.Success)

	before := p.Mon.CurrentLabel()
	result := p.DentInvoke(InvokeRequest{Fd: *created.Fd, Sync: true, Parameters: map[string]string{"id": "1"}})
	assert.False(t, result.Success)

	taint, ok := buckle.Parse("Dtainted,Itainted")
	require.True(t, ok)
	after := p.Mon.CurrentLabel()
	assert.True(t, after.Secrecy.Implies(taint.Secrecy), "failed service call still taints the session")
	assert.True(t, after.Implies(before), "label only grows across the failed call")
}

// TestScenarioS6DirectGateInvocationGatedOnClearance is the literal S6
// scenario: a Direct gate created with an invoker_integrity_clearance
// invokes successfully under full privilege, and is denied under
// public privilege without ever writing a request to the scheduler
// connection.
func TestScenarioS6DirectGateInvocationGatedOnClearance(t *testing.T) {
	t.Run("full privilege succeeds", func(t *testing.T) {
		p := newTestProcessor(t, buckle.DCTrue())
		fd := directGateFixture(t, p, "Ihigh")

		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()
		p.Scheduler = scheduler.NewClient(clientConn)

		done := make(chan struct{})
		go func() {
			defer close(done)
			var lenPrefix [4]byte
			if _, err := readFull(serverConn, lenPrefix[:]); err != nil {
				return
			}
			body := make([]byte, beUint32(lenPrefix[:]))
			if _, err := readFull(serverConn, body); err != nil {
				return
			}
			respLabel := buckle.Public()
			resp, _ := json.Marshal(scheduler.TaskReturn{Code: scheduler.Success, Payload: []byte("ran"), Label: &respLabel})
			writeFrame(serverConn, resp)
		}()

		result := p.DentInvoke(InvokeRequest{Fd: fd, Sync: true})
		assert.True(t, result.Success)
		assert.Equal(t, []byte("ran"), result.Data)
		<-done
	})

	t.Run("public privilege denied with no scheduler traffic", func(t *testing.T) {
		p := newTestProcessor(t, buckle.DCFalse())
		fd := directGateFixture(t, p, "Ihigh")

		clientConn, serverConn := net.Pipe()
		defer clientConn.Close()
		defer serverConn.Close()
		p.Scheduler = scheduler.NewClient(clientConn)

		result := p.DentInvoke(InvokeRequest{Fd: fd, Sync: true})
		assert.False(t, result.Success)
		assert.Equal(t, LabelDenied, result.Err)

		serverConn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		buf := make([]byte, 1)
		_, err := serverConn.Read(buf)
		assert.Error(t, err, "a clearance-denied invocation must never write to the scheduler connection")
	})
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func writeFrame(w net.Conn, body []byte) {
	var lenPrefix [4]byte
	n := uint32(len(body))
	lenPrefix[0] = byte(n >> 24)
	lenPrefix[1] = byte(n >> 16)
	lenPrefix[2] = byte(n >> 8)
	lenPrefix[3] = byte(n)
	w.Write(lenPrefix[:])
	w.Write(body)
}
