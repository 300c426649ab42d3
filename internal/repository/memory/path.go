package memory

import (
	"settingscatalog/internal/domain"
)

// entryPath returns the entries from id up to a ROOT entry, leaf first.
//
// An unknown id, or an entry whose page chain never reaches a ROOT entry,
// yields nil: callers get an empty path, never a partial one. The build
// guarantees every indexed entry reaches a ROOT entry, so the orphan case
// only guards against inconsistent indices.
func (r *Repository) entryPath(id domain.EntryID) []domain.Entry {
	current, ok := r.entries[id]
	if !ok {
		return nil
	}

	var path []domain.Entry
	for {
		path = append(path, current)
		if current.IsRoot() {
			return path
		}
		// A leaf plus one linking entry per page
		if len(path) > r.maxDepth+1 {
			return nil
		}

		pwe, ok := r.pages[current.ContainerPage().ID]
		if !ok || pwe.InjectEntry == nil {
			return nil
		}
		current = *pwe.InjectEntry
	}
}

// GetEntryPathWithDisplayName returns the display names from the entry up to
// the ROOT entry of its top-level page, for example
// [Layer2Entry1 INJECT_SppLayer2 INJECT_SppLayer1 ROOT_SppHome].
func (r *Repository) GetEntryPathWithDisplayName(id domain.EntryID) []string {
	path := r.entryPath(id)
	r.observePath("path_display_name", path)

	labels := make([]string, 0, len(path))
	for _, e := range path {
		labels = append(labels, e.Label)
	}
	return labels
}

// GetEntryPathWithTitle returns page titles along the same path. A leaf entry
// opens no page and is rendered as defaultTitle; every linking entry is
// rendered as the title of the page it opens.
func (r *Repository) GetEntryPathWithTitle(id domain.EntryID, defaultTitle string) []string {
	path := r.entryPath(id)
	r.observePath("path_title", path)

	titles := make([]string, 0, len(path))
	for _, e := range path {
		to, ok := e.LinksTo()
		if !ok {
			titles = append(titles, defaultTitle)
			continue
		}
		titles = append(titles, r.Title(to.ID))
	}
	return titles
}

func (r *Repository) observePath(op string, path []domain.Entry) {
	r.metrics.lookup(op, len(path) > 0)
	if len(path) > 0 {
		r.metrics.pathDepth.Observe(float64(len(path)))
	}
}
