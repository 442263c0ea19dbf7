// Package persistence talks to the backend that stores active session
// records and user accounts.
//
// The backend exposes a single endpoint that accepts form-encoded POST
// requests. The "funcion" field selects the operation:
//
//	buscar_sesiones      list tenants with an active session
//	add_session          record that a tenant reached ready
//	desconectar_session  remove a tenant's record
//	login                check user credentials
//
// Responses are JSON objects with a "data" member. Client implements Gateway
// on top of pkg/httprpc, which provides retries with backoff and a circuit
// breaker. Memory is an in-process Gateway for development and tests.
//
// Add and remove are idempotent on the backend, so retried calls are safe.
package persistence
