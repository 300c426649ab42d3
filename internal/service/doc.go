// Package service owns the live settings catalog.
//
// CatalogService keeps the current repository behind an atomic pointer so
// HTTP handlers can read it without locking while a reload builds the next
// one. A reload that fails leaves the previous catalog in place.
//
// # Event System
//
// Reloads are announced on an EventBus. Subscribers receive
// catalog_reloaded and catalog_reload_failed events; a subscriber that is
// not ready to receive misses the event rather than blocking the reload.
package service
