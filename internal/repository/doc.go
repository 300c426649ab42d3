// Package repository defines the query interface of the settings catalog.
//
// # Entry Repository
//
// EntryRepository exposes a settings page/entry graph that has already been
// built and validated: pages with their entries, entries by id, and the
// path from any entry back to the ROOT entry of its top-level page.
//
// # Implementations
//
// The memory subpackage builds the graph from a provider registry and keeps
// it in read-only indices for the lifetime of the instance.
//
// The sqlite subpackage stores catalog snapshots so a built graph can be
// inspected offline or diffed between releases.
//
// # Testing
//
// Both implementations are tested against the providertest fixture table
// and, for sqlite, an in-memory database.
package repository
