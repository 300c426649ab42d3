package memory

import (
	"fmt"

	"settingscatalog/internal/domain"
)

// build materialises every page reachable from the root pages, breadth first.
// Each page is built once; the entry that first reached it becomes its inject entry.
func (r *Repository) build(src ProviderSource) error {
	var queue []domain.Entry

	for _, root := range src.RootPages() {
		entry := domain.NewRootEntry(root)
		added, err := r.index(entry)
		if err != nil {
			return err
		}
		if added {
			queue = append(queue, entry)
		}
	}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		page, ok := entry.LinksTo()
		if !ok {
			continue
		}
		if _, seen := r.pages[page.ID]; seen {
			continue
		}

		depth := 1
		if !entry.IsRoot() {
			depth = r.depth[entry.ContainerPage().ID] + 1
		}
		if depth > r.maxDepth {
			return fmt.Errorf("%w: page %s is %d pages deep (max %d)", ErrPathTooDeep, page.DisplayName(), depth, r.maxDepth)
		}

		p, ok := src.Provider(page.Name)
		if !ok {
			return fmt.Errorf("%w: %s (opened by %s on %s)",
				ErrUnknownProvider, page.Name, entry.Label, entry.ContainerPage().DisplayName())
		}

		built, err := p.BuildEntries(page)
		if err != nil {
			return fmt.Errorf("build page %s: %w", page.DisplayName(), err)
		}

		inject := entry
		pwe := &domain.PageWithEntry{
			Page:        page,
			Title:       p.Title(page),
			Entries:     make([]domain.Entry, 0, len(built)),
			InjectEntry: &inject,
		}
		r.pages[page.ID] = pwe
		r.pageOrder = append(r.pageOrder, page.ID)
		r.depth[page.ID] = depth

		for _, e := range built {
			added, err := r.index(e)
			if err != nil {
				return err
			}
			if !added {
				// Declared twice on the same page
				continue
			}
			pwe.Entries = append(pwe.Entries, e)
			if _, links := e.LinksTo(); links {
				queue = append(queue, e)
			}
		}

		r.logger.Debug("page built", "page", page.DisplayName(), "id", page.ID, "entries", len(pwe.Entries), "depth", depth)
	}

	return nil
}

// index adds e to the entry index. It reports false if an identical entry is
// already present and fails if a different entry holds the same id.
func (r *Repository) index(e domain.Entry) (bool, error) {
	if existing, ok := r.entries[e.ID]; ok {
		if existing.Name != e.Name || existing.Label != e.Label {
			return false, fmt.Errorf("%w: %s (%q and %q)", ErrDuplicateEntry, e.ID, existing.Label, e.Label)
		}
		return false, nil
	}

	if len(r.entries) >= r.maxEntries {
		return false, fmt.Errorf("%w: more than %d entries", ErrTooManyEntries, r.maxEntries)
	}

	r.entries[e.ID] = e
	r.entryList = append(r.entryList, e.ID)
	return true, nil
}

// checkCycles walks the page injection graph depth first with an explicit
// stack. A page reached again while still in progress closes a cycle.
func (r *Repository) checkCycles() error {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := make(map[domain.PageID]int, len(r.pages))

	for _, start := range r.pageOrder {
		if state[start] != unvisited {
			continue
		}

		stack := []cycleFrame{{page: start}}
		state[start] = inProgress

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			targets := r.injections(top.page)

			if top.next >= len(targets) {
				state[top.page] = done
				stack = stack[:len(stack)-1]
				continue
			}

			target := targets[top.next]
			top.next++

			switch state[target] {
			case inProgress:
				return r.cycleError(stack, target)
			case unvisited:
				state[target] = inProgress
				stack = append(stack, cycleFrame{page: target})
			}
		}
	}

	return nil
}

// injections returns the pages opened by INJECT entries shown on page id
func (r *Repository) injections(id domain.PageID) []domain.PageID {
	pwe := r.pages[id]
	var targets []domain.PageID
	for _, e := range pwe.Entries {
		if e.Kind() != domain.KindInject {
			continue
		}
		if _, ok := r.pages[e.To.ID]; ok {
			targets = append(targets, e.To.ID)
		}
	}
	return targets
}

// cycleFrame is one page on the cycle check stack
type cycleFrame struct {
	page domain.PageID
	next int
}

// cycleError names the pages from the first visit of target to the top of the stack
func (r *Repository) cycleError(stack []cycleFrame, target domain.PageID) error {
	start := 0
	for i, f := range stack {
		if f.page == target {
			start = i
			break
		}
	}

	names := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		names = append(names, r.pages[f.page].Page.DisplayName())
	}
	names = append(names, r.pages[target].Page.DisplayName())
	return NewCycleError(names)
}
