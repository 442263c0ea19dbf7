// Package session owns the lifecycle of per-tenant messaging sessions.
//
// A Registry maps tenants to at most one live Handle. Each Handle runs a
// controller goroutine that drives a state machine:
//
//	idle ─initialize─▶ awaiting_challenge ─authenticated─▶ authenticated ─ready─▶ ready
//	                      │  ▲ challenge                                          │
//	                      └──┘                                        disconnected│
//	                                                                              ▼
//	any live state ─destroy/logout/auth_failure─▶ destroyed          disconnected
//
// Adapter events and registry commands for one tenant flow through the same
// queue, so they are handled strictly in order. Different tenants progress
// independently.
//
// Reaching ready adds a persisted record for the tenant; leaving ready through
// a disconnect or a destroy removes it. Every transition publishes the
// matching notification. Persistence failures are logged and never block a
// transition.
//
// Bootstrap recreates the sessions listed as active by the persistence
// backend when the process starts.
package session
