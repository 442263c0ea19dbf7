package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/svc/notify"
	"github.com/dmitrymomot/botfleet/svc/session"
)

func (h *Handler) streamAll(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, h.events.SubscribeAll(r.Context()))
}

func (h *Handler) streamTenant(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant")
	if err := session.ValidateTenant(tenant); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.stream(w, r, h.events.Subscribe(r.Context(), tenant))
}

// stream forwards notifications as datastar signal patches until the client
// goes away or the subscription ends.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, sub *notify.Subscription) {
	defer sub.Close()

	ctx := r.Context()
	sse := datastar.NewSSE(w, r)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode notification", logger.Error(err))
				continue
			}
			if err := sse.PatchSignals(data); err != nil {
				h.logger.DebugContext(ctx, "event stream closed", logger.Error(err))
				return
			}
		}
	}
}
