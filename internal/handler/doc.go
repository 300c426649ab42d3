// Package handler implements the read-only HTTP API over the settings catalog.
//
// # Handlers
//
// CatalogHandler serves pages, entries, the path from any entry back to its
// root, and whole-catalog exports. It reads the live catalog from the
// catalog service on every request, so a reload is visible to the next
// request without restarting the server.
//
// Middleware provides panic recovery, request ids, CORS, request logging
// and request metrics.
//
// # Response Format
//
// Success responses return JSON with status 200. Error responses return
// JSON with {error, details} structure. Unknown page or entry ids are 404.
//
// # Server-Sent Events
//
// The /events endpoint is served by the hub package and streams reload
// events to connected clients.
package handler
