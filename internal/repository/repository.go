package repository

import (
	"settingscatalog/internal/domain"
)

// EntryRepository answers queries over a built settings entry graph.
// Lookups return nil for unknown ids rather than an error.
type EntryRepository interface {
	// Pages
	GetAllPageWithEntry() []domain.PageWithEntry
	GetPageWithEntry(id domain.PageID) *domain.PageWithEntry

	// Entries
	GetAllEntries() []domain.Entry
	GetEntry(id domain.EntryID) *domain.Entry

	// Path to root, leaf first
	GetEntryPathWithDisplayName(id domain.EntryID) []string
	GetEntryPathWithTitle(id domain.EntryID, defaultTitle string) []string

	// Snapshot returns the whole graph for export
	Snapshot() *domain.Catalog
}
