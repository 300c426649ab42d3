// Package memory builds the settings entry graph from a provider registry
// and serves read-only queries over it.
//
// The graph is built once, synchronously, in New. A failed build returns
// an error and no repository. After New returns, the repository is never
// mutated, so it may be shared between goroutines without locking.
package memory

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"settingscatalog/internal/domain"
	"settingscatalog/internal/provider"
)

const (
	// DefaultMaxEntries bounds the number of entries a provider table may produce
	DefaultMaxEntries = 10000

	// DefaultMaxDepth bounds the number of pages between a root page and any other page
	DefaultMaxDepth = 32
)

// ProviderSource is what the build needs from a provider table
type ProviderSource interface {
	Provider(name string) (provider.Provider, bool)
	RootPages() []domain.Page
}

// Repository implements repository.EntryRepository over in-memory indices
type Repository struct {
	pages     map[domain.PageID]*domain.PageWithEntry
	pageOrder []domain.PageID
	entries   map[domain.EntryID]domain.Entry
	entryList []domain.EntryID
	depth     map[domain.PageID]int

	maxEntries int
	maxDepth   int
	logger     *log.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

// Option configures a Repository
type Option func(*Repository)

// WithMaxEntries sets the entry limit
func WithMaxEntries(n int) Option {
	return func(r *Repository) { r.maxEntries = n }
}

// WithMaxDepth sets the page depth limit
func WithMaxDepth(n int) Option {
	return func(r *Repository) { r.maxDepth = n }
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithRegisterer registers lookup metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Repository) { r.registerer = reg }
}

// New builds the entry graph of every page reachable from the root pages of src
func New(src ProviderSource, opts ...Option) (*Repository, error) {
	r := &Repository{
		pages:      make(map[domain.PageID]*domain.PageWithEntry),
		entries:    make(map[domain.EntryID]domain.Entry),
		depth:      make(map[domain.PageID]int),
		maxEntries: DefaultMaxEntries,
		maxDepth:   DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "catalog"})
	}
	r.metrics = newMetrics(r.registerer)

	if err := r.build(src); err != nil {
		r.logger.Error("catalog build failed", "error", err)
		return nil, err
	}
	if err := r.checkCycles(); err != nil {
		r.logger.Error("catalog build failed", "error", err)
		return nil, err
	}

	r.metrics.buildSize.Set(float64(len(r.entries)))
	r.logger.Info("catalog built", "pages", len(r.pages), "entries", len(r.entries))
	return r, nil
}

// GetAllPageWithEntry returns every materialised page in build order
func (r *Repository) GetAllPageWithEntry() []domain.PageWithEntry {
	list := make([]domain.PageWithEntry, 0, len(r.pageOrder))
	for _, id := range r.pageOrder {
		list = append(list, copyPage(r.pages[id]))
	}
	return list
}

// GetPageWithEntry returns the page with id, or nil if the build never reached it
func (r *Repository) GetPageWithEntry(id domain.PageID) *domain.PageWithEntry {
	pwe, ok := r.pages[id]
	r.metrics.lookup("page", ok)
	if !ok {
		return nil
	}
	page := copyPage(pwe)
	return &page
}

// GetAllEntries returns every entry once, in build order
func (r *Repository) GetAllEntries() []domain.Entry {
	list := make([]domain.Entry, 0, len(r.entryList))
	for _, id := range r.entryList {
		list = append(list, r.entries[id])
	}
	return list
}

// GetEntry returns the entry with id, or nil
func (r *Repository) GetEntry(id domain.EntryID) *domain.Entry {
	entry, ok := r.entries[id]
	r.metrics.lookup("entry", ok)
	if !ok {
		return nil
	}
	return &entry
}

// Snapshot returns the whole graph
func (r *Repository) Snapshot() *domain.Catalog {
	return &domain.Catalog{
		Pages:   r.GetAllPageWithEntry(),
		Entries: r.GetAllEntries(),
	}
}

// Title returns the title of a materialised page, falling back to its provider name
func (r *Repository) Title(id domain.PageID) string {
	pwe, ok := r.pages[id]
	if !ok {
		return ""
	}
	if pwe.Title != "" {
		return pwe.Title
	}
	return pwe.Page.DisplayName()
}

// Depth returns how many pages separate a root page from page id, counting both ends
func (r *Repository) Depth(id domain.PageID) int {
	return r.depth[id]
}

func copyPage(pwe *domain.PageWithEntry) domain.PageWithEntry {
	page := *pwe
	page.Entries = make([]domain.Entry, len(pwe.Entries))
	copy(page.Entries, pwe.Entries)
	if pwe.InjectEntry != nil {
		inject := *pwe.InjectEntry
		page.InjectEntry = &inject
	}
	return page
}
