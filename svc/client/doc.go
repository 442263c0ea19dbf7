// Package client wraps a messaging-platform driver into a per-tenant adapter
// with a typed event stream.
//
// A Driver is the capability that talks to the messaging platform: it
// initializes a connection, sends messages and emits lifecycle events. An
// Adapter owns exactly one Driver for one tenant and guarantees that teardown
// happens once, that commands issued after teardown fail with ErrClosed, and
// that its event stream is closed afterwards.
//
// Credentials persisted by drivers between restarts are managed through a
// CredentialStore. LocalCredentialStore keeps one directory per tenant,
// named "session-<tenant>", under a root directory on an afero filesystem.
//
// The simulator subpackage provides an in-process Driver used by the
// development binary and by tests.
package client
