// Package realtime exposes the session registry over HTTP.
//
// Commands are plain JSON endpoints under /sessions. Lifecycle notifications
// are streamed with server-sent events through datastar: every event becomes
// a signals patch of the form {"event": kind, "tenant": id, "qr": artifact},
// and each stream starts with a "connected" patch. /events streams every
// tenant, /events/{tenant} only one.
//
// /login exchanges dashboard credentials for a token and /verify-token
// checks one. When token auth is required, session and event routes expect
// an "Authorization: Bearer <token>" header or a "token" query parameter.
package realtime
