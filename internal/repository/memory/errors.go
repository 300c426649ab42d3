package memory

import (
	"errors"
	"fmt"
	"strings"
)

// Build errors. All of them abort repository construction.
var (
	ErrUnknownProvider = errors.New("unknown page provider")
	ErrDuplicateEntry  = errors.New("conflicting entries share an id")
	ErrTooManyEntries  = errors.New("entry limit exceeded")
	ErrPathTooDeep     = errors.New("page depth limit exceeded")
)

// CycleError reports a page that transitively injects itself
type CycleError struct {
	// Pages is the cycle, first and last element are the same page
	Pages []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("page injection cycle: %s", strings.Join(e.Pages, " -> "))
}

// NewCycleError creates a CycleError for the given page names
func NewCycleError(pages []string) *CycleError {
	return &CycleError{Pages: append([]string(nil), pages...)}
}
