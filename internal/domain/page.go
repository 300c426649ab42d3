package domain

import "strings"

// nullPageName is the display name of the null page
const nullPageName = "NULL"

// Param is a single page argument
type Param struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Params is an ordered list of page arguments. Order is part of page identity.
type Params []Param

// Get returns the value for key
func (p Params) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// String renders the params as k=v pairs
func (p Params) String() string {
	parts := make([]string, 0, len(p))
	for _, param := range p {
		parts = append(parts, param.Key+"="+param.Value)
	}
	return strings.Join(parts, ",")
}

// Page identifies a settings screen: the provider that builds it plus its arguments.
type Page struct {
	ID     PageID `json:"id"`
	Name   string `json:"name"`
	Params Params `json:"params,omitempty"`
}

// NewPage creates the page for provider name with the given arguments
func NewPage(name string, params ...Param) Page {
	p := Page{
		Name: name,
		ID:   UniquePageID(name, params...),
	}
	if len(params) > 0 {
		p.Params = append(Params(nil), params...)
	}
	return p
}

// NullPage returns the sentinel page meaning "no page".
// It is the from page of every ROOT entry.
func NullPage() Page {
	return Page{ID: UniquePageID("")}
}

// IsNull reports whether p is the null page
func (p Page) IsNull() bool {
	return p.Name == "" && p.ID == UniquePageID("")
}

// DisplayName returns the provider name, or NULL for the null page
func (p Page) DisplayName() string {
	if p.IsNull() {
		return nullPageName
	}
	return p.Name
}

// Equal compares pages by id
func (p Page) Equal(other Page) bool {
	return p.ID == other.ID
}
