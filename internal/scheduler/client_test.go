package scheduler

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeWithoutConnectionIsUnreachable(t *testing.T) {
	c := NewClient(nil)
	_, err := c.Invoke(LabeledInvoke{Sync: true})
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestInvokeAsyncReturnsImmediately(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = readFrame(serverConn)
	}()

	c := NewClient(clientConn)
	resp, err := c.Invoke(LabeledInvoke{Sync: false, Invoker: buckle.DCTrue()})
	require.NoError(t, err)
	assert.Nil(t, resp)
	<-done
}

func TestInvokeSyncRoundTrip(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		reqBody, err := readFrame(serverConn)
		if err != nil {
			return
		}
		var req LabeledInvoke
		_ = json.Unmarshal(reqBody, &req)

		respLabel := buckle.Public()
		resp := TaskReturn{Code: Success, Payload: []byte("done"), Label: &respLabel}
		respBody, _ := json.Marshal(resp)
		_ = writeFrame(serverConn, respBody)
	}()

	c := NewClient(clientConn)
	resp, err := c.Invoke(LabeledInvoke{Sync: true, Invoker: buckle.DCTrue()})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, Success, resp.Code)
	assert.Equal(t, []byte("done"), resp.Payload)
}
