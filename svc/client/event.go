package client

import (
	"strings"
	"time"
)

// EventKind tags an Event emitted by a Driver.
type EventKind string

const (
	EventChallenge     EventKind = "challenge"
	EventAuthenticated EventKind = "authenticated"
	EventReady         EventKind = "ready"
	EventMessage       EventKind = "message"
	EventDisconnected  EventKind = "disconnected"
	EventAuthFailure   EventKind = "auth_failure"
)

func (k EventKind) String() string {
	return string(k)
}

// DisconnectReason is the platform-provided cause of a disconnect.
type DisconnectReason string

const (
	ReasonLogout     DisconnectReason = "LOGOUT"
	ReasonNavigation DisconnectReason = "NAVIGATION"
	ReasonConflict   DisconnectReason = "CONFLICT"
	ReasonUnpaired   DisconnectReason = "UNPAIRED"
	ReasonTimeout    DisconnectReason = "TIMEOUT"
)

// Terminal reports whether the session cannot recover from this disconnect
// without a new pairing.
func (r DisconnectReason) Terminal() bool {
	switch DisconnectReason(strings.ToUpper(string(r))) {
	case ReasonLogout, ReasonNavigation:
		return true
	default:
		return false
	}
}

// Message is an inbound chat message.
type Message struct {
	ID        string
	From      string
	Body      string
	Timestamp time.Time
}

// Event is a single lifecycle or message notification from a Driver.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Challenge string
	Message   Message
	Reason    DisconnectReason
	Err       error
}

// Media is an outbound attachment.
type Media struct {
	Name     string
	MIMEType string
	Data     []byte
	Caption  string
}
