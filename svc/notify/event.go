package notify

import "time"

// Kind names a notification.
type Kind string

const (
	KindConnected    Kind = "connected"
	KindChallenge    Kind = "challenge"
	KindConnecting   Kind = "connecting"
	KindReady        Kind = "ready"
	KindDisconnected Kind = "disconnected"
)

// Event is a notification delivered to subscribers. Artifact carries the
// rendered challenge for KindChallenge.
type Event struct {
	Kind     Kind      `json:"event"`
	Tenant   string    `json:"tenant,omitempty"`
	Artifact string    `json:"qr,omitempty"`
	At       time.Time `json:"at"`
}

func Challenge(tenant, artifact string) Event {
	return Event{Kind: KindChallenge, Tenant: tenant, Artifact: artifact}
}

func Connecting(tenant string) Event {
	return Event{Kind: KindConnecting, Tenant: tenant}
}

func Ready(tenant string) Event {
	return Event{Kind: KindReady, Tenant: tenant}
}

func Disconnected(tenant string) Event {
	return Event{Kind: KindDisconnected, Tenant: tenant}
}
