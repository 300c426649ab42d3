package provider

import (
	"errors"
	"fmt"
	"sync"

	"settingscatalog/internal/domain"
)

// ErrDuplicateProvider is returned when a provider name is registered twice
var ErrDuplicateProvider = errors.New("provider already registered")

// Registry is the table of registered providers and root pages
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	roots     []domain.Page
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider. A root provider contributes its argument-less
// page as a top-level page of the catalog.
func (r *Registry) Register(p Provider, root bool) error {
	name := p.Name()
	if name == "" {
		return errors.New("provider name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}

	r.providers[name] = p
	r.order = append(r.order, name)
	if root {
		r.roots = append(r.roots, domain.NewPage(name))
	}
	return nil
}

// MustRegister is Register for static tables built in code; it panics on error
func (r *Registry) MustRegister(p Provider, root bool) *Registry {
	if err := r.Register(p, root); err != nil {
		panic(err)
	}
	return r
}

// AddRoot adds a top-level page built by an already registered provider
func (r *Registry) AddRoot(page domain.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[page.Name]; !ok {
		return fmt.Errorf("root page %s: provider not registered", page.Name)
	}
	for _, existing := range r.roots {
		if existing.ID == page.ID {
			return nil
		}
	}
	r.roots = append(r.roots, page)
	return nil
}

// Provider returns the provider registered under name
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// ListProviders returns all providers in registration order
func (r *Registry) ListProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		list = append(list, r.providers[name])
	}
	return list
}

// RootPages returns the top-level pages in registration order
func (r *Registry) RootPages() []domain.Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Page(nil), r.roots...)
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
