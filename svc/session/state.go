package session

import "regexp"

// State is the lifecycle state of a Handle.
type State string

const (
	StateIdle              State = "idle"
	StateAwaitingChallenge State = "awaiting_challenge"
	StateAuthenticated     State = "authenticated"
	StateReady             State = "ready"
	StateDisconnected      State = "disconnected"
	StateDestroyed         State = "destroyed"
)

func (s State) String() string {
	return string(s)
}

// Live reports whether a handle in this state still occupies its tenant slot.
func (s State) Live() bool {
	return s != StateDestroyed
}

type trigger string

const (
	triggerInitialize    trigger = "initialize"
	triggerChallenge     trigger = "challenge"
	triggerAuthenticated trigger = "authenticated"
	triggerReady         trigger = "ready"
	triggerMessage       trigger = "message"
	triggerDisconnected  trigger = "disconnected"
	triggerAuthFailure   trigger = "auth_failure"
	triggerDestroy       trigger = "destroy"
)

var tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,62}$`)

// ValidateTenant checks that id is 1 to 63 characters of letters, digits,
// '_' or '-', starting with a letter or digit.
func ValidateTenant(id string) error {
	if !tenantPattern.MatchString(id) {
		return ErrInvalidTenant
	}
	return nil
}
