package client

import "context"

// Driver is the messaging-platform capability behind an Adapter.
// Implementations must be safe for concurrent use; Events must return the
// same channel for the lifetime of the driver.
type Driver interface {
	// Initialize starts the connection. Progress is reported through Events.
	Initialize(ctx context.Context) error
	Send(ctx context.Context, to string, m Media) error
	SendText(ctx context.Context, to, text string) error
	// Logout invalidates the credentials on the platform side.
	Logout(ctx context.Context) error
	// Destroy releases every resource held by the driver.
	Destroy(ctx context.Context) error
	Events() <-chan Event
}

// Factory builds a Driver for a tenant.
type Factory func(tenant string) (Driver, error)
