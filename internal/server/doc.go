// Package server exposes result publication over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering; several methods may
// share a path and anything else gets 405 with an Allow header.
//
// # Results API
//
// [ResultsHandler] serves:
//   - POST /api/results/publish : run a batch publication, one run at a time (409 otherwise)
//   - POST /api/results/publish-one : publish {student_id, term}
//   - GET /api/results/status : readiness summary, never cached
//
// Publication errors map to statuses through [StatusFor]: not found 404, recipient problems 422,
// dispatch failure 502 and everything else 500. Error bodies are [ErrorResponse].
//
// # Server
//
// [New] adds /healthz and /metrics next to the results API and wraps everything in panic recovery
// and request logging. [Server.Run] shuts down gracefully when its context ends.
package server
