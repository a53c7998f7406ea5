package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAcceptsJSONAndHandleFuncs(t *testing.T) {
	ctx := context.Background()
	e := New(ctx)
	defer e.Close(ctx)

	err := e.Register(ctx, []HostFunc{
		{Name: "get_current_label", JSON: func(args []byte) []byte { return []byte(`{"success":true}`) }},
		{Name: "blob_close", Handle: func(arg int64) int64 { return 1 }},
		{Name: "dent_close", HandleJSON: func(fd uint64) []byte { return []byte(`{"success":true}`) }},
	})
	require.NoError(t, err)
}

func TestRegisterRejectsFuncWithNoHandler(t *testing.T) {
	ctx := context.Background()
	e := New(ctx)
	defer e.Close(ctx)

	err := e.Register(ctx, []HostFunc{{Name: "broken"}})
	assert.Error(t, err)
}

func TestLoadAndRunMissingFileFails(t *testing.T) {
	ctx := context.Background()
	e := New(ctx)
	defer e.Close(ctx)

	err := e.LoadAndRun(ctx, "/nonexistent/path.wasm")
	assert.Error(t, err)
}
