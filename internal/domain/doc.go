// Package domain defines the core types of the settings catalog.
//
// # Core Types
//
// Page identifies a settings screen by the provider that builds it and the
// arguments it was opened with. Pages with the same provider but different
// arguments are different pages.
//
// Entry is a navigable item declared by a page. Its Owner, From and To pages
// describe what it does:
//
//   - ROOT entries sit above a top-level page. From is the null page.
//   - INJECT entries appear on From and open Owner.
//   - Leaf entries are plain items; From and To equal Owner.
//
// PageWithEntry groups a page with its entries and the entry through which it
// was first reached. Catalog is a flat snapshot of the whole graph, used for
// export and persistence.
//
// # Identity
//
// Page and entry ids are stable hashes of their defining fields, so the same
// provider table always produces the same ids.
//
// # Design Principles
//
// - Immutable value objects
// - No database or external dependencies
package domain
