package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopSleep returns immediately, for fast tests.
func noopSleep(_ context.Context, _ time.Duration) error {
	return nil
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithSleep(noopSleep)}, opts...)
	return New(url, "test-token", opts...)
}

func TestDo_SendsBearerTokenAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "gist-migrator", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "/gists", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/", WithHeader("Accept", "application/vnd.github+json"))
	resp, err := client.Do(context.Background(), http.MethodGet, "/gists", url.Values{"page": {"2"}}, nil)
	require.NoError(t, err)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, DecodeJSON(resp, &out))
	assert.True(t, out.OK)
}

func TestDo_EncodesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"x"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodPost, "/snippets", nil, map[string]string{"title": "x"})
	require.NoError(t, err)
	require.NoError(t, DecodeJSON(resp, nil))
}

func TestDo_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"n":1}`, string(body), "body must be replayed on every attempt")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodPut, "/x", nil, map[string]int{"n": 1})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_SendsPostOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodPost, "/snippets", nil, map[string]string{"title": "x"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.ErrorIs(t, DecodeJSON(resp, nil), ErrServerError)
}

func TestDo_PostNetworkErrorNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Do(context.Background(), http.MethodPost, "/snippets", nil, map[string]string{"title": "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 1 attempts")
}

func TestDo_ReturnsLastResponseWhenRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, WithRetry(RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 2}))
	resp, err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())

	err = DecodeJSON(resp, nil)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestDo_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	resp, err := client.Do(context.Background(), http.MethodGet, "/missing", nil, nil)
	require.NoError(t, err)

	err = DecodeJSON(resp, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, http.MethodGet, apiErr.Method)
	assert.Contains(t, apiErr.Message, "Not Found")
}

func TestDo_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var waited []time.Duration
	client := New(srv.URL, "t", WithSleep(func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}))

	resp, err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []time.Duration{7 * time.Second}, waited)
}

func TestDo_NetworkErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL, WithRetry(RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}))
	_, err := client.Do(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
}

func TestDo_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, srv.URL)
	_, err := client.Do(ctx, http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRetryUpTo(t *testing.T) {
	assert.Equal(t, NoRetry(), RetryUpTo(0))
	assert.Equal(t, NoRetry(), RetryUpTo(-3))

	rc := RetryUpTo(2)
	assert.Equal(t, 2, rc.MaxRetries)
	assert.Equal(t, DefaultRetryConfig().InitialBackoff, rc.InitialBackoff)
}

func TestBackoff_BoundedByMax(t *testing.T) {
	rc := RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffFactor: 2}

	for attempt := 0; attempt < 10; attempt++ {
		d := rc.backoff(attempt)
		assert.LessOrEqual(t, d, 5*time.Second)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.ErrorIs(t, classifyStatus(http.StatusUnauthorized), ErrUnauthorized)
	assert.ErrorIs(t, classifyStatus(http.StatusForbidden), ErrForbidden)
	assert.ErrorIs(t, classifyStatus(http.StatusUnprocessableEntity), ErrValidation)
	assert.ErrorIs(t, classifyStatus(http.StatusServiceUnavailable), ErrServerError)
	assert.ErrorIs(t, classifyStatus(http.StatusTeapot), ErrUnexpected)
	assert.True(t, IsAuthError(&APIError{StatusCode: 401, Err: ErrUnauthorized}))
	assert.False(t, IsAuthError(nil))
}
