package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// reserved envelope keys
const (
	// StatusKey holds the HTTP status code merged into every envelope.
	StatusKey = "code"
	// ResultKey wraps non-object JSON bodies so the status merge stays well-defined.
	ResultKey = "result"
)

// Envelope is the normalized API response: the decoded JSON body merged with
// the HTTP status code under StatusKey. A body that is not a JSON object is
// wrapped under ResultKey, an absent or undecodable body leaves the mapping
// empty except for the status code.
type Envelope map[string]any

// Code returns the HTTP status code carried by the envelope, 0 when absent.
func (e Envelope) Code() int {
	switch v := e[StatusKey].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Request describes one logical API call. Constructed fresh per call, never reused.
type Request struct {
	Method string         // GET, POST, PUT, PATCH or DELETE
	Path   string         // suffix appended to the gists base URL, e.g. "/{id}/star"
	Params url.Values     // query parameters, pagination and filters
	Body   map[string]any // optional JSON body
}

// Result carries the outcome of an asynchronous call started with Go.
type Result struct {
	Envelope Envelope
	Err      error
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Do executes the request with retries and returns the normalized envelope.
// This is the cooperative entry point: it suspends only during the network
// exchange and the fixed post-attempt delay, both governed by ctx. The
// configured timeout bounds a single attempt, a caller wanting to bound the
// whole retrying call should set a deadline on ctx.
func (c *Client) Do(ctx context.Context, req Request) (Envelope, error) {
	return c.do(ctx, req)
}

// Go executes the request on a private, per-call context in its own goroutine
// and delivers a single Result on the returned channel. It neither requires
// nor leaks a caller concurrency context, and the channel is buffered so the
// worker never blocks on delivery. Behavior is otherwise identical to Do.
// Do not wait on the channel from inside a callback driven by the same client.
func (c *Client) Go(req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		env, err := c.do(ctx, req)
		ch <- Result{Envelope: env, Err: err}
	}()
	return ch
}

// do is the single implementation behind both entry points: up to
// retryCount+1 attempts, any received response ends the loop regardless of
// status, only transport failures are retried.
func (c *Client) do(ctx context.Context, req Request) (Envelope, error) {
	if !allowedMethods[req.Method] {
		return nil, errf(KindInvalidArgument, nil, "unsupported method %q", req.Method)
	}

	u := c.baseURL + req.Path
	if len(req.Params) > 0 {
		u += "?" + req.Params.Encode()
	}

	var payload []byte
	if req.Body != nil {
		var err error
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, errf(KindInvalidArgument, err, "failed to encode request body")
		}
	}

	attempts := c.retryCount + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		status, body, err := c.attempt(ctx, req.Method, u, payload)

		// the fixed delay is slept after every attempt, the successful and the
		// final failing one included
		// TODO: skip the delay once the exchange is decided, it only adds latency there
		pauseErr := c.pause(ctx)

		if err == nil {
			return normalize(status, body), nil
		}
		lastErr = err
		c.logger.Logf("[DEBUG] %s %s attempt %d/%d failed: %v", req.Method, u, attempt, attempts, err)

		if pauseErr != nil || ctx.Err() != nil {
			break // caller context is gone, further attempts are pointless
		}
	}

	if isTimeout(lastErr) {
		return nil, errf(KindTimeout, lastErr, "timeout error: %s", lastErr)
	}
	return nil, errf(KindUnexpected, lastErr, "an unexpected error occurred: %s", lastErr)
}

// attempt performs one exchange and drains the response on every path.
func (c *Client) attempt(ctx context.Context, method, u string, payload []byte) (status int, body []byte, err error) {
	var rdr io.Reader = http.NoBody
	if payload != nil {
		rdr = bytes.NewReader(payload) // fresh reader per attempt
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.requester.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if body, err = io.ReadAll(resp.Body); err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// pause sleeps the configured retry delay, honoring context cancellation.
func (c *Client) pause(ctx context.Context) error {
	if c.retryDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// normalize decodes the body and merges the status code under StatusKey.
// Decode failures degrade to an empty mapping rather than surfacing.
func normalize(status int, body []byte) Envelope {
	env := Envelope{}
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil && decoded != nil {
			if m, ok := decoded.(map[string]any); ok {
				env = m
			} else {
				env = Envelope{ResultKey: decoded}
			}
		}
	}
	env[StatusKey] = status
	return env
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
