package hostcall

import (
	"encoding/json"
	"testing"

	"github.com/ddaud1/faasten-host/internal/blobstore"
	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/ddaud1/faasten-host/internal/dent"
	"github.com/ddaud1/faasten-host/internal/egress"
	"github.com/ddaud1/faasten-host/internal/monitor"
	"github.com/ddaud1/faasten-host/internal/scheduler"
	"github.com/ddaud1/faasten-host/internal/sandbox"
	"github.com/ddaud1/faasten-host/internal/store"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T) *dent.Processor {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	_, rootRef, err := st.Initialize()
	require.NoError(t, err)
	blobs, err := blobstore.Open(t.TempDir())
	require.NoError(t, err)
	mon := monitor.New(buckle.DCTrue())
	return dent.NewProcessor(mon, st, blobs, scheduler.NewClient(nil), egress.NewClient(0), nil, rootRef)
}

func byName(funcs []sandbox.HostFunc, name string) (sandbox.HostFunc, bool) {
	for _, f := range funcs {
		if f.Name == name {
			return f, true
		}
	}
	return sandbox.HostFunc{}, false
}

func TestBuildRegistersEveryNamedSyscall(t *testing.T) {
	funcs := Build(newProcessor(t))

	want := []string{
		"get_current_label", "buckle_parse", "taint_with_label", "declassify", "root",
		"dent_open", "dent_create", "dent_update", "dent_link", "dent_unlink",
		"dent_ls_faceted", "dent_invoke",
		"dent_close", "dent_read", "dent_list", "dent_ls_gate", "dent_get_blob",
		"blob_create", "blob_write", "blob_finalize", "blob_read", "blob_close",
	}
	for _, name := range want {
		_, ok := byName(funcs, name)
		require.Truef(t, ok, "missing syscall %q", name)
	}
}

func TestGetCurrentLabelJSONRoundTrip(t *testing.T) {
	funcs := Build(newProcessor(t))
	f, ok := byName(funcs, "get_current_label")
	require.True(t, ok)

	out := f.JSON(nil)
	var result map[string]string
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, buckle.Public().String(), result["label"])
}

func TestDentCreateAndCloseJSONRoundTrip(t *testing.T) {
	funcs := Build(newProcessor(t))
	create, ok := byName(funcs, "dent_create")
	require.True(t, ok)
	closeFn, ok := byName(funcs, "dent_close")
	require.True(t, ok)

	req, err := json.Marshal(dent.CreateRequest{Kind: dent.CreateKind{File: &struct{}{}}})
	require.NoError(t, err)

	out := create.JSON(req)
	var res dent.Result
	require.NoError(t, json.Unmarshal(out, &res))
	require.True(t, res.Success)
	require.NotNil(t, res.Fd)

	closeOut := closeFn.HandleJSON(*res.Fd)
	var closeRes dent.Result
	require.NoError(t, json.Unmarshal(closeOut, &closeRes))
	require.True(t, closeRes.Success)
}

func TestTaintWithLabelAndDeclassifyJSONRoundTrip(t *testing.T) {
	funcs := Build(newProcessor(t))
	taintFn, ok := byName(funcs, "taint_with_label")
	require.True(t, ok)
	declassifyFn, ok := byName(funcs, "declassify")
	require.True(t, ok)

	taintReq, err := json.Marshal(map[string]string{"label": "Dwaha,Dwaha"})
	require.NoError(t, err)
	taintOut := taintFn.JSON(taintReq)
	var taintRes map[string]interface{}
	require.NoError(t, json.Unmarshal(taintOut, &taintRes))
	require.Equal(t, true, taintRes["ok"])
	require.Equal(t, "Dwaha,Dwaha", taintRes["label"])

	declassifyReq, err := json.Marshal(map[string]string{"target": "T"})
	require.NoError(t, err)
	declassifyOut := declassifyFn.JSON(declassifyReq)
	var declassifyRes map[string]interface{}
	require.NoError(t, json.Unmarshal(declassifyOut, &declassifyRes))
	require.Equal(t, true, declassifyRes["ok"])
	require.Equal(t, "T,Dwaha", declassifyRes["label"])
}
