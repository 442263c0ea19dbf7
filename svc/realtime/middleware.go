package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/botfleet/pkg/logger"
)

// requestLogFormatter feeds chi's RequestLogger and Recoverer into slog.
type requestLogFormatter struct {
	logger *slog.Logger
}

func (f requestLogFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return requestLogEntry{logger: f.logger, r: r}
}

type requestLogEntry struct {
	logger *slog.Logger
	r      *http.Request
}

func (e requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	e.logger.DebugContext(e.r.Context(), "http request",
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.Int("status", status),
		slog.Int("bytes", bytes),
		slog.Duration("duration", elapsed),
		slog.String("request_id", chimw.GetReqID(e.r.Context())),
	)
}

func (e requestLogEntry) Panic(v any, stack []byte) {
	e.logger.ErrorContext(e.r.Context(), "panic in handler",
		logger.Error(fmt.Errorf("%v", v)),
		slog.String("method", e.r.Method),
		slog.String("path", e.r.URL.Path),
		slog.String("stack", string(stack)),
	)
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && h.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) originAllowed(origin string) bool {
	return slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
