// Package egress is the outbound HTTP bridge used by Service
// invocation: interpolates a URL template against guest-supplied
// parameters and issues the request with the verb/headers/body the
// Service record specifies.
package egress

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// ErrMissingParam is wrapped into a BadUrlArgs failure by the dent
// layer when a template key has no corresponding parameter.
type ErrMissingParam struct {
	Key string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("egress: missing URL template parameter %q", e.Key)
}

// InterpolateURL substitutes "{key}" placeholders in template with
// parameters. A flat key/value substitution is used deliberately
// rather than text/template: the template string is guest-influenced
// (via the Service record a guest's own gate chain can create), and a
// general template language would let it execute arbitrary template
// actions against host-side data.
func InterpolateURL(template string, parameters map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("egress: unterminated placeholder in %q", template)
			}
			key := template[i+1 : i+end]
			val, ok := parameters[key]
			if !ok {
				return "", &ErrMissingParam{Key: key}
			}
			out.WriteString(val)
			i += end + 1
			continue
		}
		out.WriteByte(template[i])
		i++
	}
	return out.String(), nil
}

// Request is the fully-resolved outbound call.
type Request struct {
	URL     string
	Verb    string
	Headers map[string][]byte
	Body    []byte
}

// Response carries the status, headers (as raw bytes, to preserve
// non-UTF8 values per spec.md §9), and body of a completed call.
type Response struct {
	StatusCode int
	Headers    map[string][]byte
	Body       []byte
}

// Client wraps a *http.Client with a bounded timeout; the core's
// concurrency model treats this call as a blocking suspension point.
type Client struct {
	http *http.Client
}

// NewClient builds a client with a sane default timeout for outbound
// Service calls.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Do issues req and collects the response body fully into memory
// (Service payloads are bounded the same way gate payloads are).
func (c *Client) Do(req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequest(req.Verb, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("egress: build request: %w", err)
	}
	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		httpReq.Header.Set(k, string(req.Headers[k]))
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("egress: transport: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("egress: read response: %w", err)
	}

	headers := make(map[string][]byte, len(httpResp.Header))
	for k, v := range httpResp.Header {
		headers[k] = []byte(strings.Join(v, ","))
	}

	return &Response{StatusCode: httpResp.StatusCode, Headers: headers, Body: respBody}, nil
}
