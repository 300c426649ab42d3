package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"settingscatalog/internal/domain"
	"settingscatalog/internal/service"
)

const providerTable = `
version: 1
providers:
  - name: SppHome
    title: TitleHome
    root: true
    entries:
      - inject: SppLayer1
  - name: SppLayer1
    title: TitleLayer1
    entries:
      - name: Layer1Entry1
      - inject: SppLayer2
      - name: Layer1Entry2
  - name: SppLayer2
    entries:
      - name: Layer2Entry1
      - name: Layer2Entry2
`

var (
	homePage   = domain.NewPage("SppHome")
	layer1Page = domain.NewPage("SppLayer1")
	layer2Page = domain.NewPage("SppLayer2")
)

type testEnv struct {
	svc    *service.CatalogService
	path   string
	server http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(providerTable), 0o644))

	logger := log.New(io.Discard)
	svc, err := service.NewCatalogService(path, service.Options{Logger: logger})
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewCatalogHandler(svc, logger).Register(mux)

	return &testEnv{
		svc:    svc,
		path:   path,
		server: Chain(mux, Recover(logger), RequestID, CORS, Logger(logger)),
	}
}

func (e *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pages")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	pages := decode[[]domain.PageWithEntry](t, rec)
	require.Len(t, pages, 3)
	assert.Equal(t, homePage.ID, pages[0].Page.ID)
	assert.Equal(t, "TitleHome", pages[0].Title)
}

func TestGetPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pages/"+string(layer1Page.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[domain.PageWithEntry](t, rec)
	assert.Equal(t, "TitleLayer1", page.Title)
	assert.Len(t, page.Entries, 3)
	require.NotNil(t, page.InjectEntry)
	assert.Equal(t, "INJECT_SppLayer1", page.InjectEntry.Label)

	rec = env.do(t, http.MethodGet, "/api/pages/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Not found", errResp.Error)
	assert.Contains(t, errResp.Details, "nope")
}

func TestListEntries(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"all", "", http.StatusOK, 7},
		{"leaves", "?kind=leaf", http.StatusOK, 4},
		{"injections", "?kind=inject", http.StatusOK, 2},
		{"roots", "?kind=root", http.StatusOK, 1},
		{"owned by layer1", "?owner=" + string(layer1Page.ID), http.StatusOK, 3},
		{"leaves of layer2", "?owner=" + string(layer2Page.ID) + "&kind=leaf", http.StatusOK, 2},
		{"bad kind", "?kind=branch", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/entries"+tt.query)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Len(t, decode[[]domain.Entry](t, rec), tt.count)
			}
		})
	}
}

func TestGetEntry(t *testing.T) {
	env := newTestEnv(t)
	id := domain.LeafEntryID("Layer2Entry1", layer2Page)

	rec := env.do(t, http.MethodGet, "/api/entries/"+string(id))
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[domain.Entry](t, rec)
	assert.Equal(t, "Layer2Entry1", entry.Label)

	rec = env.do(t, http.MethodGet, "/api/entries/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEntryPath(t *testing.T) {
	env := newTestEnv(t)
	leaf := domain.LeafEntryID("Layer2Entry1", layer2Page)
	inject := domain.UniqueEntryID(domain.InjectEntryName, layer2Page, layer1Page, layer2Page)

	tests := []struct {
		name   string
		target string
		status int
		path   []string
	}{
		{
			name:   "display default",
			target: "/api/entries/" + string(leaf) + "/path",
			status: http.StatusOK,
			path:   []string{"Layer2Entry1", "INJECT_SppLayer2", "INJECT_SppLayer1", "ROOT_SppHome"},
		},
		{
			name:   "title of leaf",
			target: "/api/entries/" + string(leaf) + "/path?view=title&title=Default",
			status: http.StatusOK,
			path:   []string{"Default", "SppLayer2", "TitleLayer1", "TitleHome"},
		},
		{
			name:   "title of injection",
			target: "/api/entries/" + string(inject) + "/path?view=title&title=Default",
			status: http.StatusOK,
			path:   []string{"SppLayer2", "TitleLayer1", "TitleHome"},
		},
		{
			name:   "unknown view",
			target: "/api/entries/" + string(leaf) + "/path?view=tree",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown entry",
			target: "/api/entries/unknown/path",
			status: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.path, decode[PathResponse](t, rec).Path)
			}
		})
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/export/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=catalog.json", rec.Header().Get("Content-Disposition"))
	catalog := decode[domain.Catalog](t, rec)
	assert.Len(t, catalog.Entries, 7)

	rec = env.do(t, http.MethodGet, "/api/export/yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "TitleHome")

	rec = env.do(t, http.MethodGet, "/api/export/toml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReload(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, os.WriteFile(env.path, []byte("version: 1\nproviders:\n  - name: SppHome\n    root: true\n"), 0o644))
	rec := env.do(t, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[service.Status](t, rec).Pages)

	require.NoError(t, os.WriteFile(env.path, []byte("version: 1\nproviders:\n  - name: SppHome\n    root: true\n    entries:\n      - inject: Gone\n"), 0o644))
	rec = env.do(t, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[service.Status](t, rec)
	assert.Equal(t, 1, st.Pages)
	assert.NotEmpty(t, st.LastError)

	rec = env.do(t, http.MethodGet, "/api/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodOptions, "/api/pages")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	var logged strings.Builder
	logger := log.New(&logged)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID, Recover(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logged.String(), "boom")
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), Instrument(reg))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	expected := `
# HELP settingscatalog_http_requests_total HTTP requests by status code and method.
# TYPE settingscatalog_http_requests_total counter
settingscatalog_http_requests_total{code="418",method="get"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "settingscatalog_http_requests_total"))
}
