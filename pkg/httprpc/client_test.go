package httprpc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/httprpc"
)

func fastRetry() httprpc.Option {
	return httprpc.WithBackoff(httprpc.FixedBackoff{Interval: time.Millisecond})
}

func TestNew_ValidatesURL(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"", "ftp://example.com", "http://", "://bad"} {
		_, err := httprpc.New(endpoint)
		assert.ErrorIs(t, err, httprpc.ErrInvalidURL, endpoint)
	}

	_, err := httprpc.New("https://example.com/api.php")
	assert.NoError(t, err)
}

func TestClient_Call_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "add_session", r.PostForm.Get("funcion"))
		assert.Equal(t, "tenant-1", r.PostForm.Get("cliente_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":"ok"}`))
	}))
	defer server.Close()

	c, err := httprpc.New(server.URL)
	require.NoError(t, err)

	var out struct {
		Data string `json:"data"`
	}
	err = c.Call(context.Background(), url.Values{
		"funcion":    {"add_session"},
		"cliente_id": {"tenant-1"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Data)
}

func TestClient_Call_RetriesTemporaryFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	var attempts []httprpc.Attempt
	c, err := httprpc.New(server.URL, fastRetry(), httprpc.WithMaxRetries(3),
		httprpc.WithOnAttempt(func(a httprpc.Attempt) { attempts = append(attempts, a) }),
	)
	require.NoError(t, err)

	require.NoError(t, c.Call(context.Background(), url.Values{"funcion": {"x"}}, nil))
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, attempts, 3)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].StatusCode)
	assert.NoError(t, attempts[2].Err)
}

func TestClient_Call_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := httprpc.New(server.URL, fastRetry(), httprpc.WithMaxRetries(2))
	require.NoError(t, err)

	err = c.Call(context.Background(), url.Values{}, nil)
	require.ErrorIs(t, err, httprpc.ErrRequestFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Call_PermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c, err := httprpc.New(server.URL, fastRetry())
	require.NoError(t, err)

	err = c.Call(context.Background(), url.Values{}, nil)
	require.ErrorIs(t, err, httprpc.ErrPermanentFailure)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Call_DecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c, err := httprpc.New(server.URL)
	require.NoError(t, err)

	var out map[string]any
	assert.ErrorIs(t, c.Call(context.Background(), url.Values{}, &out), httprpc.ErrDecode)
}

func TestClient_Call_CircuitBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cb := httprpc.NewCircuitBreaker(2, 1, time.Hour)
	c, err := httprpc.New(server.URL, httprpc.WithMaxRetries(0), httprpc.WithCircuitBreaker(cb))
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, c.Call(ctx, url.Values{}, nil))
	require.Error(t, c.Call(ctx, url.Values{}, nil))
	assert.Equal(t, httprpc.CircuitOpen, cb.State())

	assert.ErrorIs(t, c.Call(ctx, url.Values{}, nil), httprpc.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Call_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, err := httprpc.New(server.URL, httprpc.WithBackoff(httprpc.FixedBackoff{Interval: time.Hour}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = c.Call(ctx, url.Values{}, nil)
	require.ErrorIs(t, err, httprpc.ErrRequestFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
