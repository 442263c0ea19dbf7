package session

import (
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/botfleet/svc/client"
)

// Challenge is the pairing artifact currently offered for a tenant.
type Challenge struct {
	Raw      string
	Artifact string
	IssuedAt time.Time
}

// Info is an immutable snapshot of a Handle.
type Info struct {
	Tenant         string    `json:"tenant"`
	State          State     `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
	TransitionedAt time.Time `json:"transitioned_at"`
	Challenge      string    `json:"qr,omitempty"`
	Pending        bool      `json:"pending"`
	Recorded       bool      `json:"recorded"`
}

// Handle is the registry's entry for one tenant's session.
type Handle struct {
	tenant    string
	createdAt time.Time
	adapter   *client.Adapter
	ctrl      *controller
	pending   atomic.Bool
}

func (h *Handle) Tenant() string {
	return h.tenant
}

func (h *Handle) State() State {
	return h.ctrl.state()
}

// Challenge returns the current pairing challenge, if one is outstanding.
func (h *Handle) Challenge() (Challenge, bool) {
	return h.ctrl.currentChallenge()
}

// Done is closed once the handle has been destroyed and its controller has
// stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.ctrl.done
}

// Err returns the cause of a self-initiated teardown, such as ErrAuthFailure.
// It is nil while the handle is live or after an explicit destroy.
func (h *Handle) Err() error {
	return h.ctrl.cause()
}

func (h *Handle) Snapshot() Info {
	info := Info{
		Tenant:    h.tenant,
		State:     h.ctrl.state(),
		CreatedAt: h.createdAt,
		Pending:   h.pending.Load(),
	}

	h.ctrl.mu.RLock()
	info.TransitionedAt = h.ctrl.transitionedAt
	info.Recorded = h.ctrl.recorded
	if h.ctrl.challenge != nil {
		info.Challenge = h.ctrl.challenge.Artifact
	}
	h.ctrl.mu.RUnlock()

	return info
}
