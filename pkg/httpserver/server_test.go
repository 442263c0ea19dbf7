package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/httpserver"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	var started, stopped atomic.Bool
	srv := httpserver.New(
		httpserver.WithShutdownTimeout(time.Second),
		httpserver.WithStartHook(func(context.Context) error { started.Store(true); return nil }),
		httpserver.WithStopHook(func(context.Context) error { stopped.Store(true); return nil }),
	)

	ln := listen(t)
	addr := ln.Addr().String()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, time.Second, 10*time.Millisecond)
	assert.True(t, started.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.True(t, stopped.Load())
	require.NoError(t, srv.Shutdown(context.Background()), "repeated shutdown is a no-op")
}

func TestServer_DrainHookEndsStreams(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	var stopErr atomic.Value

	srv := httpserver.New(
		httpserver.WithShutdownTimeout(5*time.Second),
		httpserver.WithDrainHook(func(context.Context) error { close(release); return nil }),
		httpserver.WithStopHook(func(ctx context.Context) error {
			stopErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		}),
	)

	ln := listen(t)
	addr := ln.Addr().String()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			close(entered)
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr)
		return err == nil
	}, time.Second, 10*time.Millisecond)
	defer resp.Body.Close()
	<-entered

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("open stream held shutdown")
	}

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "<nil>", stopErr.Load(), "stop hooks get a live context")
}

func TestServer_StartHookError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	srv := httpserver.New(httpserver.WithStartHook(func(context.Context) error { return boom }))

	err := srv.Serve(context.Background(), listen(t), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
	assert.ErrorIs(t, err, boom)
}

func TestServer_StopHookError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	srv := httpserver.New(httpserver.WithStopHook(func(context.Context) error { return boom }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := srv.Serve(ctx, listen(t), nil)
	assert.ErrorIs(t, err, boom)
}

func TestServer_RunInvalidAddr(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("256.0.0.1:99999"))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(-1) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(0) })
	assert.Panics(t, func() { httpserver.WithStopHook(nil) })
	assert.Panics(t, func() { httpserver.WithDrainHook(nil) })
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
		t.Helper()
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body
	}

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.HealthCheckHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alive", decode(t, rec)["status"])
	})

	t.Run("readiness", func(t *testing.T) {
		t.Parallel()
		ok := httpserver.Check{Name: "db", Fn: func(context.Context) error { return nil }}
		failing := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("down") }}

		rec := httptest.NewRecorder()
		httpserver.HealthCheckHandler(nil, ok)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", decode(t, rec)["status"])

		rec = httptest.NewRecorder()
		httpserver.HealthCheckHandler(nil, ok, failing)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"db": "ok", "redis": "failing"}, body["checks"])
	})
}
