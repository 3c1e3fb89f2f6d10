// Package unanet is a small client for the Unanet REST API.
//
// # Authentication
//
// [Client.Authenticate] posts the configured username and password to /platform/rest/login and keeps
// the returned token. Every later request carries it as a bearer token through an [oauth2.Transport]
// built on [oauth2.StaticTokenSource]; the token is not refreshed.
//
// # Requests
//
// All requests share one [rate.Limiter]. A 404 is reported as [shared.ErrNotFound] so callers can
// count it as a miss; any other non-2xx status wraps [shared.ErrAPIRequest]. JSON numbers are decoded
// as [json.Number] so identifiers and amounts keep their original text when flattened into a table.
//
// # Scanning
//
// Unanet has no list endpoints for projects, planned time or invoices, so the refresh jobs walk
// sequential ids. [Scanner] does that walk with an explicit consecutive miss counter.
package unanet
