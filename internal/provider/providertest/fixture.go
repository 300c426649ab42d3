// Package providertest provides a small provider table for tests.
package providertest

import (
	"settingscatalog/internal/domain"
	"settingscatalog/internal/provider"
)

// Provider names of the fixture table
const (
	Home      = "SppHome"
	Layer1    = "SppLayer1"
	Layer2    = "SppLayer2"
	WithParam = "SppWithParam"
)

// NewRegistry returns the three layer table:
//
//	SppHome (root) -> SppLayer1 -> SppLayer2
//
// plus SppWithParam, which is registered but never injected anywhere.
func NewRegistry() *provider.Registry {
	return provider.NewRegistry().
		MustRegister(&provider.Static{
			ProviderName: Home,
			PageTitle:    "TitleHome",
			Entries: []provider.EntryDecl{
				{Inject: Layer1},
			},
		}, true).
		MustRegister(&provider.Static{
			ProviderName: Layer1,
			PageTitle:    "TitleLayer1",
			Entries: []provider.EntryDecl{
				{Name: "Layer1Entry1"},
				{Inject: Layer2},
				{Name: "Layer1Entry2"},
			},
		}, false).
		MustRegister(&provider.Static{
			ProviderName: Layer2,
			Entries: []provider.EntryDecl{
				{Name: "Layer2Entry1"},
				{Name: "Layer2Entry2"},
			},
		}, false).
		MustRegister(&provider.Static{
			ProviderName: WithParam,
			Parameters:   []string{"string_param", "int_param"},
			Entries: []provider.EntryDecl{
				{Name: "WithParamEntry"},
			},
		}, false)
}

// Page returns the argument-less page of a fixture provider
func Page(name string) domain.Page {
	return domain.NewPage(name)
}
