package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/svc/client"
	"github.com/dmitrymomot/botfleet/svc/client/simulator"
)

var errNoDriver = errors.New("no simulated client for tenant")

type simulatedMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type simulatedDisconnect struct {
	Reason string `json:"reason"`
}

// simulatorRoutes exposes the in-process driver so a pairing can be completed
// and messages injected without a real messaging network.
func simulatorRoutes(fleet *simulator.Fleet, log *slog.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.Route("/simulator/{tenant}", func(r chi.Router) {
			r.Post("/approve", func(w http.ResponseWriter, r *http.Request) {
				d, ok := driverFor(w, r, fleet)
				if !ok {
					return
				}
				if err := d.Approve(r.Context()); err != nil {
					log.WarnContext(r.Context(), "simulated approve failed", logger.Tenant(d.Tenant()), logger.Error(err))
					respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
					return
				}
				w.WriteHeader(http.StatusAccepted)
			})

			r.Post("/reject", func(w http.ResponseWriter, r *http.Request) {
				d, ok := driverFor(w, r, fleet)
				if !ok {
					return
				}
				d.Reject("rejected by simulator")
				w.WriteHeader(http.StatusAccepted)
			})

			r.Post("/messages", func(w http.ResponseWriter, r *http.Request) {
				d, ok := driverFor(w, r, fleet)
				if !ok {
					return
				}
				var msg simulatedMessage
				if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.From == "" {
					respond(w, http.StatusBadRequest, map[string]string{"error": "from and body are required"})
					return
				}
				d.Deliver(msg.From, msg.Body)
				w.WriteHeader(http.StatusAccepted)
			})

			r.Post("/disconnect", func(w http.ResponseWriter, r *http.Request) {
				d, ok := driverFor(w, r, fleet)
				if !ok {
					return
				}
				var req simulatedDisconnect
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Reason == "" {
					req.Reason = string(client.ReasonConflict)
				}
				d.Disconnect(client.DisconnectReason(req.Reason))
				w.WriteHeader(http.StatusAccepted)
			})

			r.Get("/sent", func(w http.ResponseWriter, r *http.Request) {
				d, ok := driverFor(w, r, fleet)
				if !ok {
					return
				}
				respond(w, http.StatusOK, d.SentMessages())
			})
		})
	}
}

func driverFor(w http.ResponseWriter, r *http.Request, fleet *simulator.Fleet) (*simulator.Driver, bool) {
	d, ok := fleet.Driver(chi.URLParam(r, "tenant"))
	if !ok {
		respond(w, http.StatusNotFound, map[string]string{"error": errNoDriver.Error()})
	}
	return d, ok
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
