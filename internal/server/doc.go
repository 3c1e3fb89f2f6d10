// Package server exposes the jobs over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging] writes one line per request through charmbracelet/log; [Recover] turns panics into a 500.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Job Routes
//
// [JobHandler] serves every path in [JobRoutes] for GET and POST. A request runs its job synchronously on
// the request context: success is a 200 with a one-line message, any failure a 500 with the error text.
// A row count mismatch therefore reports both counts in the body. Clients sending Accept: application/json
// (or ?format=json) get the full job result instead.
//
// GET /healthz answers "ok" without touching the engine.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
