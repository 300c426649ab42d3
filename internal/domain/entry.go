package domain

// Entry tags. Any other name marks a leaf entry.
const (
	RootEntryName   = "ROOT"
	InjectEntryName = "INJECT"
)

// EntryKind classifies an entry by its tag
type EntryKind string

const (
	KindRoot   EntryKind = "root"   // top-level entry of a root page
	KindInject EntryKind = "inject" // link from one page to another
	KindLeaf   EntryKind = "leaf"   // plain item on a page
)

// Entry is a navigable item. Owner is the page that declares it; From and To
// describe the navigation it performs. For leaf entries both equal Owner.
type Entry struct {
	ID    EntryID `json:"id"`
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Owner Page    `json:"owner"`
	From  Page    `json:"from"`
	To    Page    `json:"to"`
}

// EntryOption customizes an entry at construction
type EntryOption func(*Entry)

// WithLabel overrides the display name
func WithLabel(label string) EntryOption {
	return func(e *Entry) {
		e.Label = label
	}
}

func newEntry(name string, owner, from, to Page, label string, opts []EntryOption) Entry {
	e := Entry{
		ID:    UniqueEntryID(name, owner, from, to),
		Name:  name,
		Label: label,
		Owner: owner,
		From:  from,
		To:    to,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// NewRootEntry creates the ROOT entry of a top-level page
func NewRootEntry(owner Page, opts ...EntryOption) Entry {
	return newEntry(RootEntryName, owner, NullPage(), owner, "ROOT_"+owner.DisplayName(), opts)
}

// NewInjectEntry creates the entry shown on page from that opens owner
func NewInjectEntry(owner, from Page, opts ...EntryOption) Entry {
	return newEntry(InjectEntryName, owner, from, owner, "INJECT_"+owner.DisplayName(), opts)
}

// NewLeafEntry creates a plain entry on owner
func NewLeafEntry(name string, owner Page, opts ...EntryOption) Entry {
	return newEntry(name, owner, owner, owner, name, opts)
}

// Kind returns the entry kind derived from its tag
func (e Entry) Kind() EntryKind {
	switch e.Name {
	case RootEntryName:
		return KindRoot
	case InjectEntryName:
		return KindInject
	default:
		return KindLeaf
	}
}

// IsRoot reports whether e is a ROOT entry
func (e Entry) IsRoot() bool {
	return e.Kind() == KindRoot
}

// LinksTo reports whether following e opens a page other than the one it sits on
func (e Entry) LinksTo() (Page, bool) {
	if e.Kind() == KindLeaf {
		return Page{}, false
	}
	return e.To, true
}

// ContainerPage returns the page e is displayed on
func (e Entry) ContainerPage() Page {
	if e.From.IsNull() {
		return e.Owner
	}
	return e.From
}

// PageWithEntry groups a page with the entries it declares, in registration order
type PageWithEntry struct {
	Page    Page    `json:"page"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`

	// InjectEntry is the entry through which the page was first reached
	InjectEntry *Entry `json:"inject_entry,omitempty"`
}

// Catalog is a flat snapshot of a built entry graph
type Catalog struct {
	Pages   []PageWithEntry `json:"pages"`
	Entries []Entry         `json:"entries"`
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		Pages:   make([]PageWithEntry, 0),
		Entries: make([]Entry, 0),
	}
}
