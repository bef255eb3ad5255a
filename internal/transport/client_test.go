package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(t *testing.T, attempts int) RetryPolicy {
	t.Helper()
	p, err := NewRetryPolicy(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
	)
	require.NoError(t, err)
	return p
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	var body string
	r := chi.NewRouter()
	r.Put("/pdf/move", func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Clone()
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		w.Write([]byte("true"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	c := New(srv.URL+"/", "tok", WithClientVersion("1.2.3"))
	defer c.Close()

	resp, err := c.DoJSON(context.Background(), http.MethodPut, "/pdf/move", "sess-1", map[string]int{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "true", string(resp))
	assert.JSONEq(t, `{"x":1}`, body)

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "sess-1", got.Get("X-Session-Id"))
	assert.Equal(t, "1", got.Get("X-API-VERSION"))
	assert.Equal(t, "pdfdancer-go/1.2.3", got.Get("X-PDFDancer-Client"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestClient_OmitsEmptyTokenAndSession(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Clone()
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Get(context.Background(), "/x", "")
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, got.Get("X-Session-Id"))
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ids = append(ids, req.Header.Get("X-Request-Id"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	stats := NewStats(time.Minute)
	c := New(srv.URL, "t", WithRetry(fastRetry(t, 3)), WithStats(stats))
	body, err := c.Get(context.Background(), "/x", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())

	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])

	snap := stats.Snapshot()
	assert.Equal(t, 3, snap.Requests)
	assert.Equal(t, 2, snap.Failures)
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"Upstream","message":"bad gateway"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t", WithRetry(fastRetry(t, 2))).Get(context.Background(), "/x", "")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.EqualValues(t, 2, calls.Load())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Upstream", apiErr.Code)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"IllegalArgument","message":"no such object"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t", WithRetry(fastRetry(t, 3))).Get(context.Background(), "/x", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, IsRetryable(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_FontNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"FontNotFoundException","message":"Comic Sans"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").Get(context.Background(), "/font/find?fontName=x", "s")
	var fontErr *FontNotFoundError
	require.ErrorAs(t, err, &fontErr)
	assert.Equal(t, "Comic Sans", fontErr.Message)
}

func TestClient_PlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "t").Get(context.Background(), "/x", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "nope")
}

func TestClient_NetworkErrorRetriedPerPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := fastRetry(t, 2)
	_, err := New(url, "t", WithRetry(p)).Get(context.Background(), "/x", "")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	p.RetryOnNetworkErrors = false
	assert.False(t, p.shouldRetry(err))
}

func TestClient_CancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewRetryPolicy(WithMaxAttempts(5), WithInitialDelay(time.Hour), WithMaxDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = New(srv.URL, "t", WithRetry(p)).Get(ctx, "/x", "")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_Upload(t *testing.T) {
	var name string
	var content []byte
	r := chi.NewRouter()
	r.Post("/session/create", func(w http.ResponseWriter, req *http.Request) {
		f, hdr, err := req.FormFile("pdf")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		name = hdr.Filename
		content, _ = io.ReadAll(f)
		w.Write([]byte("session-42"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	body, err := New(srv.URL, "t").Upload(context.Background(), "/session/create", "pdf", "doc.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "session-42", string(body))
	assert.Equal(t, "doc.pdf", name)
	assert.Equal(t, "%PDF-1.7", string(content))
}

func TestClient_PostHeaders(t *testing.T) {
	var fp string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fp = req.Header.Get("X-Fingerprint")
		w.Write([]byte(`{"token":"anon"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").PostHeaders(context.Background(), "/keys/anon", http.Header{"X-Fingerprint": {"abc"}})
	require.NoError(t, err)
	assert.Equal(t, "abc", fp)
}

func TestClient_RejectsOversizedBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	c := New(srv.URL, "t", WithRetry(fastRetry(t, 3)), WithMaxResponseBytes(9))
	body, err := c.Get(context.Background(), "/big", "")
	assert.Nil(t, body)
	require.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Equal(t, int32(1), calls.Load())

	c = New(srv.URL, "t", WithMaxResponseBytes(10))
	body, err = c.Get(context.Background(), "/exact", "")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(body))
}
