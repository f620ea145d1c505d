package gist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errTransport fails every round trip with a fixed error and counts attempts.
type errTransport struct {
	calls int32
	err   error
}

func (t *errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&t.calls, 1)
	return nil, t.err
}

// timeoutErr satisfies net.Error with Timeout() == true
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClient_Do(t *testing.T) {
	t.Run("status code merged into body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-GitHub-Api-Version"))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id": "abc"}`))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, 0))
		require.NoError(t, err)

		env, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, "abc", env["id"])
		assert.Equal(t, http.StatusOK, env.Code())
	})

	t.Run("undecodable body degrades to empty mapping", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json at all"))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, 0))
		require.NoError(t, err)

		env, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Len(t, env, 1, "only the status code expected")
		assert.Equal(t, http.StatusOK, env.Code())
	})

	t.Run("array body wrapped under result key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"id": "g1"}, {"id": "g2"}]`))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, 0))
		require.NoError(t, err)

		env, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, env.Code())
		list, ok := env[ResultKey].([]any)
		require.True(t, ok)
		assert.Len(t, list, 2)
	})

	t.Run("http error status not retried", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message": "boom"}`))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
		require.NoError(t, err)

		env, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		require.NoError(t, err, "received response is a success regardless of status")
		assert.Equal(t, http.StatusInternalServerError, env.Code())
		assert.Equal(t, "boom", env["message"])
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("transport failure retried retry_count+1 times", func(t *testing.T) {
		tr := &errTransport{err: assert.AnError}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(2, time.Millisecond), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		_, err = c.Do(context.Background(), Request{Method: http.MethodGet})
		require.Error(t, err)
		assert.True(t, IsUnexpected(err))
		assert.Contains(t, err.Error(), "an unexpected error occurred")
		assert.Equal(t, int32(3), atomic.LoadInt32(&tr.calls))
	})

	t.Run("zero retry count makes exactly one attempt", func(t *testing.T) {
		tr := &errTransport{err: assert.AnError}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(0, time.Millisecond), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		_, err = c.Do(context.Background(), Request{Method: http.MethodGet})
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&tr.calls))
	})

	t.Run("timeout failure classified after budget", func(t *testing.T) {
		tr := &errTransport{err: timeoutErr{}}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(1, time.Millisecond), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		_, err = c.Do(context.Background(), Request{Method: http.MethodGet})
		require.Error(t, err)
		assert.True(t, IsTimeout(err))
		assert.Contains(t, err.Error(), "timeout error")
		assert.Equal(t, int32(2), atomic.LoadInt32(&tr.calls))
	})

	t.Run("delay slept after every attempt including the last", func(t *testing.T) {
		tr := &errTransport{err: assert.AnError}
		delay := 25 * time.Millisecond
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(2, delay), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		st := time.Now()
		_, err = c.Do(context.Background(), Request{Method: http.MethodGet})
		require.Error(t, err)
		assert.GreaterOrEqual(t, time.Since(st), 3*delay, "3 attempts, 3 sleeps")
	})

	t.Run("delay slept after a successful attempt too", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		delay := 30 * time.Millisecond
		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, delay))
		require.NoError(t, err)

		st := time.Now()
		env, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, env.Code())
		assert.GreaterOrEqual(t, time.Since(st), delay)
	})

	t.Run("canceled context stops retrying early", func(t *testing.T) {
		tr := &errTransport{err: assert.AnError}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(10, 10*time.Millisecond), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
		defer cancel()

		_, err = c.Do(ctx, Request{Method: http.MethodGet})
		require.Error(t, err)
		assert.Less(t, atomic.LoadInt32(&tr.calls), int32(11), "budget not exhausted after cancellation")
	})

	t.Run("unsupported method rejected before network", func(t *testing.T) {
		tr := &errTransport{err: assert.AnError}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(0, 0), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		_, err = c.Do(context.Background(), Request{Method: "TRACE"})
		require.Error(t, err)
		assert.True(t, IsInvalidArgument(err))
		assert.Zero(t, atomic.LoadInt32(&tr.calls))
	})
}

func TestClient_Go(t *testing.T) {
	t.Run("same envelope as Do", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"id": "abc"}`))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, 0))
		require.NoError(t, err)

		res := <-c.Go(Request{Method: http.MethodGet})
		require.NoError(t, res.Err)
		assert.Equal(t, "abc", res.Envelope["id"])
		assert.Equal(t, http.StatusOK, res.Envelope.Code())
	})

	t.Run("same failure classification as Do", func(t *testing.T) {
		tr := &errTransport{err: timeoutErr{}}
		c, err := New(WithToken("test-token"), WithBaseURL("http://gists.local"),
			WithRetry(1, time.Millisecond), WithHTTPClient(&http.Client{Transport: tr}))
		require.NoError(t, err)

		res := <-c.Go(Request{Method: http.MethodGet})
		require.Error(t, res.Err)
		assert.True(t, IsTimeout(res.Err))
		assert.Equal(t, int32(2), atomic.LoadInt32(&tr.calls))
	})

	t.Run("result buffered, collect later", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c, err := New(WithToken("test-token"), WithBaseURL(srv.URL), WithRetry(0, 0))
		require.NoError(t, err)

		ch := c.Go(Request{Method: http.MethodGet})
		time.Sleep(50 * time.Millisecond) // worker done and gone by now
		res := <-ch
		require.NoError(t, res.Err)
		assert.Equal(t, http.StatusOK, res.Envelope.Code())
	})
}

func TestEnvelope_Code(t *testing.T) {
	assert.Equal(t, 200, Envelope{StatusKey: 200}.Code())
	assert.Equal(t, 404, Envelope{StatusKey: float64(404)}.Code())
	assert.Zero(t, Envelope{}.Code())
	assert.Zero(t, Envelope{StatusKey: "200"}.Code())
}

func TestNormalize(t *testing.T) {
	t.Run("object body", func(t *testing.T) {
		env := normalize(200, []byte(`{"a": 1}`))
		assert.Equal(t, float64(1), env["a"])
		assert.Equal(t, 200, env.Code())
	})
	t.Run("empty body", func(t *testing.T) {
		env := normalize(204, nil)
		assert.Equal(t, Envelope{StatusKey: 204}, env)
	})
	t.Run("scalar body wrapped", func(t *testing.T) {
		env := normalize(200, []byte(`true`))
		assert.Equal(t, true, env[ResultKey])
	})
	t.Run("null body ignored", func(t *testing.T) {
		env := normalize(200, []byte(`null`))
		assert.Equal(t, Envelope{StatusKey: 200}, env)
	})
}
