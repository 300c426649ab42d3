package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"settingscatalog/internal/codec"
	"settingscatalog/internal/domain"
	"settingscatalog/internal/repository"
	"settingscatalog/internal/service"
)

// Path views
const (
	ViewDisplay = "display"
	ViewTitle   = "title"
)

// CatalogService is what the handler needs from the live catalog
type CatalogService interface {
	Repository() repository.EntryRepository
	Export(format string, w io.Writer) error
	Status() service.Status
	Reload() error
}

// CatalogHandler handles catalog API requests
type CatalogHandler struct {
	svc    CatalogService
	logger *log.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc CatalogService, logger *log.Logger) *CatalogHandler {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "http"})
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

// Register adds the catalog routes to mux
func (h *CatalogHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/pages", h.ListPages)
	mux.HandleFunc("GET /api/pages/{id}", h.GetPage)

	mux.HandleFunc("GET /api/entries", h.ListEntries)
	mux.HandleFunc("GET /api/entries/{id}", h.GetEntry)
	mux.HandleFunc("GET /api/entries/{id}/path", h.GetEntryPath)

	mux.HandleFunc("GET /api/export/{format}", h.Export)

	mux.HandleFunc("GET /api/status", h.GetStatus)
	mux.HandleFunc("POST /api/reload", h.Reload)
	mux.HandleFunc("GET /healthz", h.Healthz)
}

// Error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PathResponse is the path from an entry to its root, entry first
type PathResponse struct {
	EntryID domain.EntryID `json:"entry_id"`
	View    string         `json:"view"`
	Path    []string       `json:"path"`
}

// ListPages returns every page of the catalog in build order
func (h *CatalogHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Repository().GetAllPageWithEntry(), http.StatusOK)
}

// GetPage returns a single page with its entries
func (h *CatalogHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, "Invalid page ID", "Page ID is required", http.StatusBadRequest)
		return
	}

	page := h.svc.Repository().GetPageWithEntry(domain.PageID(id))
	if page == nil {
		h.writeError(w, "Not found", "page "+id+" not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, page, http.StatusOK)
}

// ListEntries returns all entries, optionally filtered by owner page and kind
func (h *CatalogHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	kind := r.URL.Query().Get("kind")

	switch domain.EntryKind(kind) {
	case "", domain.KindRoot, domain.KindInject, domain.KindLeaf:
	default:
		h.writeError(w, "Invalid kind", "kind must be one of root, inject, leaf", http.StatusBadRequest)
		return
	}

	all := h.svc.Repository().GetAllEntries()
	entries := make([]domain.Entry, 0, len(all))
	for _, e := range all {
		if owner != "" && string(e.Owner.ID) != owner {
			continue
		}
		if kind != "" && string(e.Kind()) != kind {
			continue
		}
		entries = append(entries, e)
	}

	h.writeJSON(w, entries, http.StatusOK)
}

// GetEntry returns a single entry
func (h *CatalogHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, "Invalid entry ID", "Entry ID is required", http.StatusBadRequest)
		return
	}

	entry := h.svc.Repository().GetEntry(domain.EntryID(id))
	if entry == nil {
		h.writeError(w, "Not found", "entry "+id+" not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, entry, http.StatusOK)
}

// GetEntryPath returns the path from an entry to its root page.
// view=display (default) gives labels, view=title gives page titles with
// the title query parameter standing in for the entry itself.
func (h *CatalogHandler) GetEntryPath(w http.ResponseWriter, r *http.Request) {
	id := domain.EntryID(r.PathValue("id"))
	view := r.URL.Query().Get("view")
	if view == "" {
		view = ViewDisplay
	}

	// Both path queries share one snapshot of the catalog
	repo := h.svc.Repository()
	if repo.GetEntry(id) == nil {
		h.writeError(w, "Not found", "entry "+string(id)+" not found", http.StatusNotFound)
		return
	}

	var path []string
	switch view {
	case ViewDisplay:
		path = repo.GetEntryPathWithDisplayName(id)
	case ViewTitle:
		path = repo.GetEntryPathWithTitle(id, r.URL.Query().Get("title"))
	default:
		h.writeError(w, "Invalid view", "view must be display or title", http.StatusBadRequest)
		return
	}
	if path == nil {
		path = []string{}
	}

	h.writeJSON(w, PathResponse{EntryID: id, View: view, Path: path}, http.StatusOK)
}

// Export writes the whole catalog in the requested format
func (h *CatalogHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	exporter, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=catalog."+exporter.Format())

	if err := h.svc.Export(format, w); err != nil {
		h.logger.Error("Failed to export catalog", "format", format, "error", err)
		// Can't write error response as we already set headers
		return
	}
}

// GetStatus returns the size and age of the live catalog
func (h *CatalogHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Status(), http.StatusOK)
}

// Reload rebuilds the catalog from its provider table
func (h *CatalogHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(); err != nil {
		h.logger.Warn("Reload rejected", "error", err, "request_id", RequestIDFromContext(r.Context()))
		h.writeError(w, "Reload failed", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, h.svc.Status(), http.StatusOK)
}

// Healthz reports liveness
func (h *CatalogHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// Helper methods

func (h *CatalogHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON", "error", err)
	}
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
