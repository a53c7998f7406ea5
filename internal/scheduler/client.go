package scheduler

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
)

// ErrUnreachable is returned by Invoke when no connection is
// configured or the remote end has closed the stream. The dent layer
// maps this to the SchedulerUnreachable error kind.
var ErrUnreachable = errors.New("scheduler: unreachable")

// Client holds one optional net.Conn. A nil conn means "no scheduler
// configured" and every Invoke fails immediately, matching spec.md
// §6 ("Connection may be absent").
type Client struct {
	conn net.Conn
}

// NewClient wraps an already-dialed connection. Passing nil is valid
// and models the absent-scheduler case.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Dial connects to addr over TCP and wraps the resulting connection.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("scheduler: dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// Close closes the underlying connection, if any.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Invoke sends one LabeledInvoke and, for a sync call, awaits exactly
// one TaskReturn. Async calls return immediately after the write
// completes. Only one request may be in flight at a time — the dent
// layer never calls Invoke concurrently within a session.
func (c *Client) Invoke(req LabeledInvoke) (*TaskReturn, error) {
	if c.conn == nil {
		return nil, ErrUnreachable
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("scheduler: encode request: %w", err)
	}
	if err := writeFrame(c.conn, body); err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	if !req.Sync {
		return nil, nil
	}
	respBody, err := readFrame(c.conn)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}
	var resp TaskReturn
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("scheduler: decode response: %w", err)
	}
	return &resp, nil
}

func writeFrame(w io.Writer, body []byte) error {
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint32(lenPrefix[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
