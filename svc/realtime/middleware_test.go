package realtime_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/svc/realtime"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHandler_RequestMiddleware(t *testing.T) {
	t.Parallel()

	newLoggedEnv := func(t *testing.T) (*env, *syncBuffer) {
		t.Helper()
		out := &syncBuffer{}
		log := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
		e := newEnv(t,
			realtime.WithLogger(log),
			realtime.WithRoutes(func(r chi.Router) {
				r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
			}),
		)
		return e, out
	}

	t.Run("requests are logged", func(t *testing.T) {
		t.Parallel()
		e, out := newLoggedEnv(t)

		resp, _ := e.do(t, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), `"msg":"http request"`)
		}, 2*time.Second, 10*time.Millisecond)
		logged := out.String()
		assert.Contains(t, logged, `"path":"/healthz"`)
		assert.Contains(t, logged, `"status":200`)
		assert.Contains(t, logged, `"request_id":`)
	})

	t.Run("panics are recovered and logged", func(t *testing.T) {
		t.Parallel()
		e, out := newLoggedEnv(t)

		resp, _ := e.do(t, http.MethodGet, "/boom", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		require.Eventually(t, func() bool {
			return strings.Contains(out.String(), `"msg":"panic in handler"`)
		}, 2*time.Second, 10*time.Millisecond)
		assert.Contains(t, out.String(), `"path":"/boom"`)

		resp, _ = e.do(t, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "server keeps serving after a panic")
	})
}
