// Package provider holds the registration table of settings page providers.
//
// A provider builds one kind of settings page. Given a concrete page (the
// provider name plus arguments) it returns the entries shown on that page,
// including INJECT entries that link to pages built by other providers.
// Providers are registered explicitly into a Registry; there is no
// discovery at runtime.
package provider

import (
	"fmt"

	"settingscatalog/internal/domain"
)

// Provider builds the entries of the pages it owns
type Provider interface {
	// Name is the provider name and the name of every page it builds
	Name() string

	// Title returns the title of page, which was built by this provider
	Title(page domain.Page) string

	// BuildEntries returns the entries shown on page, in display order
	BuildEntries(page domain.Page) ([]domain.Entry, error)
}

// EntryDecl declares one entry of a static provider
type EntryDecl struct {
	// Name of a leaf entry. Ignored for injections.
	Name string

	// Label overrides the display name
	Label string

	// Inject names the provider whose page this entry opens
	Inject string

	// Args are the arguments of the injected page
	Args domain.Params
}

// Static is a provider declared as data, one row of the registration table
type Static struct {
	ProviderName string
	PageTitle    string
	Parameters   []string
	Entries      []EntryDecl
}

// Name implements Provider
func (s *Static) Name() string {
	return s.ProviderName
}

// Title implements Provider. Pages without a declared title use the provider name.
func (s *Static) Title(page domain.Page) string {
	if s.PageTitle != "" {
		return s.PageTitle
	}
	return page.DisplayName()
}

// BuildEntries implements Provider
func (s *Static) BuildEntries(page domain.Page) ([]domain.Entry, error) {
	if page.Name != s.ProviderName {
		return nil, fmt.Errorf("provider %s cannot build page %s", s.ProviderName, page.Name)
	}
	if err := s.checkArgs(page.Params); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(s.Entries))
	for i, decl := range s.Entries {
		var opts []domain.EntryOption
		if decl.Label != "" {
			opts = append(opts, domain.WithLabel(decl.Label))
		}

		switch {
		case decl.Inject != "":
			target := domain.NewPage(decl.Inject, decl.Args...)
			entries = append(entries, domain.NewInjectEntry(target, page, opts...))
		case decl.Name == domain.RootEntryName || decl.Name == domain.InjectEntryName:
			return nil, fmt.Errorf("provider %s: entry name %s is reserved", s.ProviderName, decl.Name)
		case decl.Name != "":
			entries = append(entries, domain.NewLeafEntry(decl.Name, page, opts...))
		default:
			return nil, fmt.Errorf("provider %s: entry %d has neither name nor inject", s.ProviderName, i)
		}
	}
	return entries, nil
}

func (s *Static) checkArgs(args domain.Params) error {
	for _, arg := range args {
		declared := false
		for _, key := range s.Parameters {
			if key == arg.Key {
				declared = true
				break
			}
		}
		if !declared {
			return fmt.Errorf("provider %s: undeclared parameter %q", s.ProviderName, arg.Key)
		}
	}
	return nil
}
