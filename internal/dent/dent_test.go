package dent

import (
	"testing"

	"github.com/ddaud1/faasten-host/internal/blobstore"
	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/egress"
	"github.com/ddaud1/faasten-host/internal/monitor"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/ddaud1/faasten-host/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T, privilege buckle.Component) *Processor {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, rootRef, err := st.Initialize()
	require.NoError(t, err)

	bs, err := blobstore.Open(t.TempDir())
	require.NoError(t, err)

	mon := monitor.New(privilege)
	sched := scheduler.NewClient(nil)
	eg := egress.NewClient(0)

	return NewProcessor(mon, st, bs, sched, eg, nil, rootRef)
}

func strp(s string) *string { return &s }
